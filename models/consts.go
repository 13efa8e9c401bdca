package models

const (
	SpecV2 = "chara_card_v2"
	SpecV3 = "chara_card_v3"
	// SpecVersion is written on export; imported cards keep their own.
	SpecVersion = "2.0"
	// DescriptionSeparator joins description and personality on import.
	DescriptionSeparator = "\n\n"
	Producer             = "charapng"
	ProducerNotes        = "Exported from charapng"
	ProducerCharVersion  = "1.0"
	DefaultUserName      = "YOU"
)
