// Package docs registra a especificação Swagger servida em /swagger/.
// O template é mantido junto das anotações dos handlers (internal/api/...);
// ao alterar uma rota, atualize os dois.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/forms": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Cria uma sessão de formulário. Com record_id abre a edição do registro, carregando a reserva original de cada linha.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["forms"],
                "summary": "Abre um formulário de entrega ou venda",
                "parameters": [
                    {
                        "description": "Tipo do formulário e registro opcional",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/formservice.OpenRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Formulário aberto", "schema": {"$ref": "#/definitions/form.FormState"}},
                    "400": {"description": "Payload inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Registro não encontrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Registro não pode mais ser editado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/forms/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["forms"],
                "summary": "Obtém o estado do formulário",
                "parameters": [
                    {"type": "string", "description": "ID do formulário", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Estado atual", "schema": {"$ref": "#/definitions/form.FormState"}},
                    "404": {"description": "Formulário não encontrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["forms"],
                "summary": "Descarta o formulário",
                "parameters": [
                    {"type": "string", "description": "ID do formulário", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Formulário descartado"},
                    "404": {"description": "Formulário não encontrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/forms/{id}/actions": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Ações: set_field, add_item, remove_item (pede confirmação), set_item_field, select_product, request_confirmation, confirm, cancel_confirmation.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["forms"],
                "summary": "Aplica uma ação de edição",
                "parameters": [
                    {"type": "string", "description": "ID do formulário", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Ação {type, payload}",
                        "name": "action",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/form.Envelope"}
                    }
                ],
                "responses": {
                    "200": {"description": "Estado após a ação", "schema": {"$ref": "#/definitions/form.FormState"}},
                    "400": {"description": "Ação inválida", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Formulário ou linha não encontrados", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Formulário em envio ou já enviado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/forms/{id}/items/{itemID}/stock": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["forms"],
                "summary": "Consulta novamente o estoque de uma linha",
                "parameters": [
                    {"type": "string", "description": "ID do formulário", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "ID da linha", "name": "itemID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Estado com o snapshot atualizado", "schema": {"$ref": "#/definitions/form.FormState"}},
                    "400": {"description": "Linha sem produto ou local", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Formulário ou linha não encontrados", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/forms/{id}/submit": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Consulta o estoque de todas as linhas, valida tudo e grava o registro.",
                "produces": ["application/json"],
                "tags": ["forms"],
                "summary": "Valida e envia o formulário",
                "parameters": [
                    {"type": "string", "description": "ID do formulário", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Registro gravado", "schema": {"$ref": "#/definitions/form.FormState"}},
                    "404": {"description": "Formulário não encontrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Envio em andamento ou estoque insuficiente na gravação", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "422": {"description": "Violações de validação", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/locations": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Armazéns abastecem entregas; filiais, vendas.",
                "produces": ["application/json"],
                "tags": ["locations"],
                "summary": "Lista armazéns ou filiais",
                "parameters": [
                    {"type": "string", "description": "warehouse ou branch", "name": "kind", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "Locais encontrados", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Location"}}},
                    "400": {"description": "Tipo inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "500": {"description": "Erro interno do servidor", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/stock": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Retorna quantidade, reservado e disponível para (local, produto, variação).",
                "produces": ["application/json"],
                "tags": ["stock"],
                "summary": "Consulta o estoque de um produto em um local",
                "parameters": [
                    {"type": "string", "description": "ID do armazém ou filial", "name": "location_id", "in": "query", "required": true},
                    {"type": "string", "description": "ID do produto", "name": "product_id", "in": "query", "required": true},
                    {"type": "string", "description": "ID da variação", "name": "variation_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Snapshot do estoque", "schema": {"$ref": "#/definitions/domain.StockSnapshot"}},
                    "400": {"description": "Parâmetros ausentes", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "500": {"description": "Erro interno do servidor", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.ErrorResponse": {
            "description": "Estrutura padronizada para respostas de erro na API.",
            "type": "object",
            "properties": {
                "category": {"type": "string", "example": "FORM_VALIDATION_ERROR"},
                "code": {"type": "integer", "example": 422},
                "message": {"type": "string", "example": "O formulário possui 2 problema(s)."},
                "violations": {"type": "array", "items": {"$ref": "#/definitions/domain.Violation"}}
            }
        },
        "domain.Violation": {
            "type": "object",
            "properties": {
                "field_path": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "domain.StockKey": {
            "type": "object",
            "properties": {
                "location_id": {"type": "string"},
                "product_id": {"type": "string"},
                "variation_id": {"type": "string"}
            }
        },
        "domain.StockSnapshot": {
            "type": "object",
            "properties": {
                "available_quantity": {"type": "integer"},
                "fetched_at": {"type": "string"},
                "key": {"$ref": "#/definitions/domain.StockKey"},
                "quantity": {"type": "integer"},
                "reserved_quantity": {"type": "integer"}
            }
        },
        "domain.StockEntry": {
            "type": "object",
            "properties": {
                "snapshot": {"$ref": "#/definitions/domain.StockSnapshot"},
                "warning": {"type": "string"}
            }
        },
        "domain.Location": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "name": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.ProductSelection": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "product_id": {"type": "string"},
                "variation_id": {"type": "string"}
            }
        },
        "domain.LineItem": {
            "type": "object",
            "properties": {
                "confirmed_quantity": {"type": "integer"},
                "id": {"type": "string"},
                "location_id": {"type": "string"},
                "location_name": {"type": "string"},
                "original_key": {"$ref": "#/definitions/domain.StockKey"},
                "original_reserved_quantity": {"type": "integer"},
                "product_name": {"type": "string"},
                "requested_quantity": {"type": "integer"},
                "selection": {"$ref": "#/definitions/domain.ProductSelection"},
                "unit_price": {"type": "number"}
            }
        },
        "form.Confirmation": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "item_id": {"type": "string"}
            }
        },
        "form.Header": {
            "type": "object",
            "properties": {
                "company_id": {"type": "string"},
                "document_number": {"type": "string"},
                "location_id": {"type": "string"},
                "location_name": {"type": "string"},
                "notes": {"type": "string"},
                "prepared_date": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "form.FormState": {
            "type": "object",
            "properties": {
                "header": {"$ref": "#/definitions/form.Header"},
                "id": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.LineItem"}},
                "kind": {"type": "string"},
                "mode": {"type": "string"},
                "pending_confirmation": {"$ref": "#/definitions/form.Confirmation"},
                "phase": {"type": "string"},
                "record_id": {"type": "string"},
                "record_version": {"type": "integer"},
                "revision": {"type": "integer"},
                "snapshots": {"type": "object", "additionalProperties": {"$ref": "#/definitions/domain.StockEntry"}},
                "submit_error": {"type": "string"},
                "violations": {"type": "array", "items": {"$ref": "#/definitions/domain.Violation"}}
            }
        },
        "form.Envelope": {
            "type": "object",
            "properties": {
                "payload": {"type": "object"},
                "type": {"type": "string"}
            }
        },
        "formservice.OpenRequest": {
            "type": "object",
            "required": ["kind"],
            "properties": {
                "kind": {"type": "string", "enum": ["delivery", "sale"]},
                "record_id": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "GoERP Forms API",
	Description:      "Sessões de formulário de entrega e venda com checagem de estoque.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
