package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Evidence holds the structure for the evidences collection in mongo
type Evidence struct {
	ID                  primitive.ObjectID `json:"_id" bson:"_id"`
	CaseID              string             `json:"caseId" bson:"caseId"`
	Tipo                string             `json:"tipo" bson:"tipo"` // "Imagem" or "Texto"
	DataColeta          time.Time          `json:"dataColeta" bson:"dataColeta"`
	ColetadoPor         string             `json:"coletadoPor" bson:"coletadoPor"`
	ImagemURL           string             `json:"imagemURL,omitempty" bson:"imagemURL,omitempty"`
	Conteudo            string             `json:"conteudo,omitempty" bson:"conteudo,omitempty"`
	Categoria           string             `json:"categoria" bson:"categoria"`
	Origem              string             `json:"origem" bson:"origem"`
	Condicao            string             `json:"condicao" bson:"condicao"`
	Localizacao         string             `json:"localizacao" bson:"localizacao"`
	ObservacoesTecnicas string             `json:"observacoesTecnicas,omitempty" bson:"observacoesTecnicas,omitempty"`
	DescricaoDetalhada  string             `json:"descricaoDetalhada,omitempty" bson:"descricaoDetalhada,omitempty"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}
