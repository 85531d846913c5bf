package models

// Tick is one price observation from the terminal bridge stream.
type Tick struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"t"` // unix seconds
	Price     float64 `json:"c"`
	Volume    float64 `json:"v"`
}
