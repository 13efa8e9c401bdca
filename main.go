package main

import (
	"charapng/models"
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	importPath := flag.String("import", "", "png card to import")
	exportName := flag.String("export", "", "stored persona name or persona json file to export")
	basePath := flag.String("base", "", "png to carry the exported card")
	outPath := flag.String("out", "", "output file for -export and -preview")
	previewPath := flag.String("preview", "", "png card to render as html")
	browse := flag.Bool("browse", false, "browse the cards in SysDir (or the dir given as argument)")
	resolve := flag.Bool("resolve", false, "substitute {{char}} and {{user}} in imported text")
	flag.Parse()
	if err := initApp(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeApp()
	if err := run(*importPath, *exportName, *basePath, *outPath, *previewPath, *browse, *resolve); err != nil {
		logger.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		closeApp()
		os.Exit(1)
	}
}

func run(importPath, exportName, basePath, outPath, previewPath string, browse, resolve bool) error {
	switch {
	case importPath != "":
		persona, err := importCard(importPath)
		if err != nil {
			return err
		}
		if resolve {
			persona = persona.Resolve(cfg.UserRole)
		}
		return printPersona(persona)
	case exportName != "":
		if outPath == "" {
			return fmt.Errorf("-export needs -out")
		}
		persona, err := loadPersona(exportName)
		if err != nil {
			return err
		}
		return exportCard(persona, basePath, outPath)
	case previewPath != "":
		if outPath == "" {
			return fmt.Errorf("-preview needs -out")
		}
		return previewCard(previewPath, outPath)
	case browse:
		dir := cfg.SysDir
		if flag.NArg() > 0 {
			dir = flag.Arg(0)
		}
		return runBrowser(dir)
	default:
		flag.Usage()
		return nil
	}
}

func printPersona(p *models.PersonaRecord) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Println(string(data))
	return err
}
