package dto

import "smartsupply/internal/domain/gate"

// GateResponse describes the classification of one operation.
type GateResponse struct {
	Operation            string    `json:"operation"`
	Tier                 gate.Tier `json:"tier"`
	Known                bool      `json:"known"`
	RequiresConfirmation bool      `json:"requiresConfirmation"`
}
