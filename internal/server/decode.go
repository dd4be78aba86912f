package server

import (
	"encoding/json"
	"net/http"

	"github.com/mmynk/tripledger/internal/models"
)

// Partial-update payloads decode into pointer fields so absent keys stay nil
// and only the supplied fields reach the store.

func decodeProjectUpdate(r *http.Request, update *models.ProjectUpdate) error {
	var body struct {
		Name     *string `json:"projectName"`
		InCharge *string `json:"inCharge"`
		Currency *string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return err
	}
	update.Name = body.Name
	update.InCharge = body.InCharge
	update.Currency = body.Currency
	return nil
}

func decodeTransactionUpdate(r *http.Request, update *models.TransactionUpdate) error {
	var body struct {
		Type        *string   `json:"type"`
		Date        *string   `json:"date"`
		Amount      *float64  `json:"amount"`
		Description *string   `json:"description"`
		Category    *string   `json:"category"`
		Receipts    *[]string `json:"receipts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return err
	}
	if body.Type != nil {
		t := models.TransactionType(*body.Type)
		update.Type = &t
	}
	update.Date = body.Date
	update.Amount = body.Amount
	update.Description = body.Description
	update.Category = body.Category
	update.Receipts = body.Receipts
	return nil
}

func decodeReportUpdate(r *http.Request, update *models.DailyReportUpdate) error {
	var body struct {
		Date         *string   `json:"date"`
		Participants *string   `json:"participants"`
		WhatWeDid    *string   `json:"whatWeDid"`
		SpecialNote  *string   `json:"specialNote"`
		Photos       *[]string `json:"photos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return err
	}
	update.Date = body.Date
	update.Participants = body.Participants
	update.WhatWeDid = body.WhatWeDid
	update.SpecialNote = body.SpecialNote
	update.Photos = body.Photos
	return nil
}
