package main

import (
	"charapng/models"
	"charapng/pngmeta"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const browserHelp = "[yellow]Enter[white]: show  [yellow]Ctrl+s[white]: save to db  [yellow]Esc/q[white]: quit"

// runBrowser lists the cards found in dir with a detail pane.
func runBrowser(dir string) error {
	cards, err := pngmeta.ReadDirCards(dir, logger)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return fmt.Errorf("no character cards in %s", dir)
	}
	app := tview.NewApplication()
	details := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)
	details.SetBorder(true).SetTitle("card")
	status := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText(browserHelp)
	list := tview.NewList().ShowSecondaryText(true)
	list.SetBorder(true).SetTitle(dir)
	for _, cc := range cards {
		list.AddItem(cc.AIName, cc.FilePath, 0, nil)
	}
	show := func(i int) {
		details.SetText(cardText(cards[i].Resolve(cfg.UserRole)))
		details.ScrollToBeginning()
	}
	list.SetChangedFunc(func(i int, _, _ string, _ rune) { show(i) })
	list.SetSelectedFunc(func(i int, _, _ string, _ rune) {
		show(i)
		app.SetFocus(details)
	})
	details.SetDoneFunc(func(key tcell.Key) {
		app.SetFocus(list)
	})
	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEsc, event.Rune() == 'q':
			app.Stop()
			return nil
		case event.Key() == tcell.KeyCtrlS:
			status.SetText(saveCard(cards[list.GetCurrentItem()]))
			return nil
		}
		return event
	})
	show(0)
	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewFlex().
			AddItem(list, 0, 1, true).
			AddItem(details, 0, 3, false), 0, 1, true).
		AddItem(status, 1, 0, false)
	return app.SetRoot(flex, true).EnableMouse(true).Run()
}

func saveCard(cc *models.PersonaRecord) string {
	if store == nil {
		return "[red]no DBPATH configured[white]"
	}
	if _, err := store.UpsertPersona(cc); err != nil {
		logger.Error("failed to save card", "name", cc.AIName, "error", err)
		return fmt.Sprintf("[red]save failed: %v[white]", err)
	}
	return fmt.Sprintf("saved %s; %s", tview.Escape(cc.AIName), browserHelp)
}

func cardText(p *models.PersonaRecord) string {
	var b strings.Builder
	section := func(title, text string) {
		if text == "" {
			return
		}
		fmt.Fprintf(&b, "[yellow::b]%s[-:-:-]\n%s\n\n", title, tview.Escape(text))
	}
	section("Name", p.AIName)
	section("Description", p.PersonaDescription)
	section("Greeting", p.Greeting)
	section("Scenario", p.StoredScenario)
	section("Example messages", p.StoredExamples)
	return b.String()
}
