package view

import "time"

type ProposalRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type FundingRow struct {
	ID              string    `json:"id"`
	Affiliation     string    `json:"affiliation"`
	AmountRequested string    `json:"amountRequested"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Dashboard struct {
	Email         string            `json:"email"`
	Orders        []OrderListItem   `json:"orders"`
	Registrations []RegistrationRow `json:"registrations"`
	Proposals     []ProposalRow     `json:"proposals"`
	Funding       []FundingRow      `json:"funding"`
}
