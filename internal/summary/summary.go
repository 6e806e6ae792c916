// Package summary aggregates parsed transactions into the totals shown next
// to a converted statement.
package summary

import (
	"sort"

	"github.com/insightdelivered/mpesa-statement-converter/internal/models"
)

const topCounterparties = 5

// Month holds the totals of one calendar month, keyed "YYYY-MM".
type Month struct {
	Month   string  `json:"month"`
	In      float64 `json:"in"`
	Out     float64 `json:"out"`
	Balance float64 `json:"balance"`
}

// Counterparty is a description with the outgoing amount paid to it.
type Counterparty struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// Summary aggregates a list of transactions.
type Summary struct {
	TotalIn           float64                            `json:"totalIn"`
	TotalOut          float64                            `json:"totalOut"`
	Net               float64                            `json:"net"`
	Count             int                                `json:"count"`
	ByType            map[models.TransactionType]float64 `json:"byType"`
	Monthly           []Month                            `json:"monthly"`
	TopCounterparties []Counterparty                     `json:"topCounterparties"`
	Insight           Insight                            `json:"insight"`
}

// Summarize totals RECEIVE as money in and SEND/PAYBILL as money out.
// UNKNOWN transactions are counted but added to no total.
func Summarize(txns []models.Transaction) Summary {
	s := Summary{
		Count:             len(txns),
		ByType:            make(map[models.TransactionType]float64),
		Monthly:           []Month{},
		TopCounterparties: []Counterparty{},
	}

	months := make(map[string]*Month)
	parties := make(map[string]*Counterparty)

	for _, txn := range txns {
		if txn.Type == models.TypeUnknown {
			continue
		}
		s.ByType[txn.Type] += txn.Amount

		key := txn.Date.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &Month{Month: key}
			months[key] = m
		}

		if !txn.Type.Outgoing() {
			s.TotalIn += txn.Amount
			m.In += txn.Amount
			continue
		}

		s.TotalOut += txn.Amount
		m.Out += txn.Amount

		p, ok := parties[txn.Description]
		if !ok {
			p = &Counterparty{Name: txn.Description}
			parties[txn.Description] = p
		}
		p.Amount += txn.Amount
		p.Count++
	}
	s.Net = s.TotalIn - s.TotalOut

	for _, m := range months {
		m.Balance = m.In - m.Out
		s.Monthly = append(s.Monthly, *m)
	}
	sort.Slice(s.Monthly, func(i, j int) bool {
		return s.Monthly[i].Month < s.Monthly[j].Month
	})

	for _, p := range parties {
		s.TopCounterparties = append(s.TopCounterparties, *p)
	}
	sort.Slice(s.TopCounterparties, func(i, j int) bool {
		a, b := s.TopCounterparties[i], s.TopCounterparties[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Name < b.Name
	})
	if len(s.TopCounterparties) > topCounterparties {
		s.TopCounterparties = s.TopCounterparties[:topCounterparties]
	}

	s.Insight = Insights(s, txns)
	return s
}
