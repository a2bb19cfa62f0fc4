package model

type Instrument struct {
	ID     string `json:"id"`
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
