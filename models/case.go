package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Case statuses as stored in the cases collection
const (
	CaseStatusOpen      = "Aberto"
	CaseStatusAnalyzing = "Em Análise"
	CaseStatusClosed    = "Fechado"
)

// ValidCaseStatus reports whether s is one of the known case statuses
func ValidCaseStatus(s string) bool {
	switch s {
	case CaseStatusOpen, CaseStatusAnalyzing, CaseStatusClosed:
		return true
	}
	return false
}

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID             primitive.ObjectID   `json:"_id" bson:"_id"`
	Titulo         string               `json:"titulo" bson:"titulo"`
	Descricao      string               `json:"descricao" bson:"descricao"`
	Status         string               `json:"status" bson:"status"`
	Localizacao    string               `json:"localizacao" bson:"localizacao"`
	DataAbertura   time.Time            `json:"dataAbertura" bson:"dataAbertura"`
	DataFechamento *time.Time           `json:"dataFechamento,omitempty" bson:"dataFechamento,omitempty"`
	Evidencias     []primitive.ObjectID `json:"evidencias" bson:"evidencias"`
	Relatorios     []primitive.ObjectID `json:"relatorios" bson:"relatorios"`
	Responsavel    primitive.ObjectID   `json:"responsavel" bson:"responsavel"`
	SexoVitima     string               `json:"sexoVitima" bson:"sexoVitima"`
	CorPele        string               `json:"corPele" bson:"corPele"`
	CausaMorte     string               `json:"causaMorte" bson:"causaMorte"`
	Instituicao    string               `json:"instituicao" bson:"instituicao"`
	CreatedAt      time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// CaseUpdatableFields lists the case fields a PATCH may $set
var CaseUpdatableFields = map[string]bool{
	"titulo":         true,
	"descricao":      true,
	"status":         true,
	"localizacao":    true,
	"dataFechamento": true,
	"sexoVitima":     true,
	"corPele":        true,
	"causaMorte":     true,
	"instituicao":    true,
}
