package data

import (
	_ "embed"
)

//go:embed currencies.json
var SeedCurrencies []byte
