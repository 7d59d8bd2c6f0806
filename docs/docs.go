// Package docs holds the OpenAPI document served under /swagger. It mirrors
// the swag annotations on the handlers and is edited alongside them.
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
        "/wallet": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Get the caller's linked wallet",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.WalletLink"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/wallet/challenge": {
            "post": {
                "security": [{"TelegramInitData": []}],
                "description": "Returns the payload to pass to TON Connect as tonProof.",
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Request a wallet proof challenge",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Challenge"}}
                }
            }
        },
        "/wallet/link": {
            "post": {
                "security": [{"TelegramInitData": []}],
                "description": "Verifies a ton_proof and links the wallet as the payout address of the caller.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Link a TON wallet",
                "parameters": [
                    {"description": "TON Connect account and proof", "name": "proof", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.LinkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.WalletLink"}},
                    "400": {"description": "Invalid proof", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/custody/balance": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["custody"],
                "summary": "Get the caller's custody balance",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.BalanceResponse"}}
                }
            }
        },
        "/custody/credit": {
            "post": {
                "security": [{"TelegramInitData": []}],
                "description": "Mints funds into an account, e.g. after an off-chain top-up was confirmed.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["custody"],
                "summary": "Credit a custody account",
                "parameters": [
                    {"description": "Account and amount", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreditRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.BalanceResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/pool": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Get pool state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PoolResponse"}},
                    "404": {"description": "Pool not initialized", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/pool/initialize": {
            "post": {
                "security": [{"TelegramInitData": []}],
                "description": "Creates the pool with the caller as admin. Repeating the call as the same admin is a no-op.",
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Initialize the pool",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PoolResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "403": {"description": "Pool owned by another admin", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/pool/deposit": {
            "post": {
                "security": [{"TelegramInitData": []}],
                "description": "Moves amount from the caller into pool custody and credits the caller's deposit record.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Deposit into the pool",
                "parameters": [
                    {"description": "Amount in base units", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AmountRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ReceiptResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "422": {"description": "Arithmetic overflow", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "502": {"description": "Transfer failed", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/pool/withdraw": {
            "post": {
                "security": [{"TelegramInitData": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Withdraw from the pool",
                "parameters": [
                    {"description": "Amount in base units", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AmountRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ReceiptResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "422": {"description": "Insufficient balance", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/pool/draw": {
            "post": {
                "security": [{"TelegramInitData": []}],
                "description": "Runs a weighted draw over the given candidates, or over every depositor when none are given. Adds one reward unit to the reward pool.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Draw a winner",
                "parameters": [
                    {"description": "Optional candidate list", "name": "input", "in": "body", "schema": {"$ref": "#/definitions/dto.DrawRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DrawResponse"}},
                    "404": {"description": "Unknown candidate", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "409": {"description": "Cooldown has not elapsed", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "422": {"description": "No depositors", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/pool/claim": {
            "post": {
                "security": [{"TelegramInitData": []}],
                "description": "Pays the accumulated reward pool to the winner, defaulting to the last drawn winner.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Pay out the reward",
                "parameters": [
                    {"description": "Optional winner", "name": "input", "in": "body", "schema": {"$ref": "#/definitions/dto.ClaimRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ClaimResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "422": {"description": "No reward to claim", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "502": {"description": "Transfer failed", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/pool/deposits": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "description": "Deposit records in first-deposit order.",
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "List deposits",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DepositsResponse"}}
                }
            }
        },
        "/pool/deposits/me": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Get the caller's deposit",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DepositResponse"}}
                }
            }
        },
        "/pool/deposits/{owner}": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Get a participant's deposit",
                "parameters": [
                    {"type": "string", "description": "Participant identity", "name": "owner", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DepositResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/pool/draws": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "description": "Most recent draws first.",
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "List draws",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Maximum entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DrawsResponse"}}
                }
            }
        },
        "/pool/claims": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "description": "Most recent payouts first.",
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "List claims",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Maximum entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ClaimsResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.AmountRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {"amount": {"type": "integer"}}
        },
        "dto.BalanceResponse": {
            "type": "object",
            "properties": {"account": {"type": "string"}, "balance": {"type": "integer"}}
        },
        "dto.ClaimRequest": {
            "type": "object",
            "properties": {"winner": {"type": "string"}}
        },
        "dto.ClaimResponse": {
            "type": "object",
            "properties": {"claim": {"$ref": "#/definitions/models.Claim"}}
        },
        "dto.ClaimsResponse": {
            "type": "object",
            "properties": {
                "claims": {"type": "array", "items": {"$ref": "#/definitions/models.Claim"}},
                "total": {"type": "integer"}
            }
        },
        "dto.CreditRequest": {
            "type": "object",
            "required": ["account", "amount"],
            "properties": {"account": {"type": "string"}, "amount": {"type": "integer"}}
        },
        "dto.DepositResponse": {
            "type": "object",
            "properties": {"deposit": {"$ref": "#/definitions/models.DepositRecord"}}
        },
        "dto.DepositsResponse": {
            "type": "object",
            "properties": {
                "deposits": {"type": "array", "items": {"$ref": "#/definitions/models.DepositRecord"}},
                "total": {"type": "integer"}
            }
        },
        "dto.DrawRequest": {
            "type": "object",
            "properties": {"candidates": {"type": "array", "items": {"type": "string"}}}
        },
        "dto.DrawResponse": {
            "type": "object",
            "properties": {"draw": {"$ref": "#/definitions/models.Draw"}}
        },
        "dto.DrawsResponse": {
            "type": "object",
            "properties": {
                "draws": {"type": "array", "items": {"$ref": "#/definitions/models.Draw"}},
                "total": {"type": "integer"}
            }
        },
        "dto.PoolResponse": {
            "type": "object",
            "properties": {"pool": {"$ref": "#/definitions/models.Pool"}}
        },
        "dto.ReceiptResponse": {
            "type": "object",
            "properties": {"receipt": {"$ref": "#/definitions/models.Receipt"}}
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true},
                "context": {"type": "object", "additionalProperties": {"type": "string"}},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"},
                "identity": {"type": "string"}
            }
        },
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"$ref": "#/definitions/errors.AppError"},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"},
                "path": {"type": "string"},
                "method": {"type": "string"}
            }
        },
        "models.Claim": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "pool_id": {"type": "string"},
                "winner": {"type": "string"},
                "authorizer": {"type": "string"},
                "amount": {"type": "integer"},
                "claimed_at": {"type": "string"}
            }
        },
        "models.DepositRecord": {
            "type": "object",
            "properties": {
                "owner": {"type": "string"},
                "amount": {"type": "integer"},
                "deposit_time": {"type": "integer"}
            }
        },
        "models.Draw": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "pool_id": {"type": "string"},
                "winner": {"type": "string"},
                "winner_index": {"type": "integer"},
                "winner_weight": {"type": "integer"},
                "candidates": {"type": "integer"},
                "seed": {"type": "integer"},
                "target": {"type": "integer"},
                "total_weight": {"type": "integer"},
                "unix_time": {"type": "integer"},
                "slot": {"type": "integer"},
                "epoch": {"type": "integer"},
                "total_deposited": {"type": "integer"},
                "total_depositors": {"type": "integer"},
                "reward": {"type": "integer"},
                "reward_pool": {"type": "integer"},
                "selected_at": {"type": "string"}
            }
        },
        "models.Pool": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "variant": {"type": "string", "enum": ["native", "stable", "yield"]},
                "version": {"type": "integer"},
                "admin": {"type": "string"},
                "total_deposited": {"type": "integer"},
                "total_depositors": {"type": "integer"},
                "last_reward_time": {"type": "integer"},
                "reward_pool": {"type": "integer"},
                "last_winner": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.Challenge": {
            "type": "object",
            "properties": {
                "identity": {"type": "string"},
                "payload": {"type": "string"},
                "created_at": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "models.LinkRequest": {
            "description": "TON Connect account and ton_proof",
            "type": "object",
            "required": ["address", "proof"],
            "properties": {
                "address": {"type": "string", "example": "0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8"},
                "network": {"type": "string", "example": "-239"},
                "public_key": {"type": "string"},
                "proof": {"$ref": "#/definitions/models.Proof"}
            }
        },
        "models.Proof": {
            "type": "object",
            "required": ["domain", "payload", "signature", "timestamp"],
            "properties": {
                "timestamp": {"type": "integer"},
                "domain": {"$ref": "#/definitions/models.ProofDomain"},
                "payload": {"type": "string"},
                "signature": {"type": "string"}
            }
        },
        "models.ProofDomain": {
            "type": "object",
            "required": ["value"],
            "properties": {"lengthBytes": {"type": "integer"}, "value": {"type": "string"}}
        },
        "models.WalletLink": {
            "type": "object",
            "properties": {
                "identity": {"type": "string"},
                "address": {"type": "string"},
                "network": {"type": "string"},
                "verified_at": {"type": "string"}
            }
        },
        "models.Receipt": {
            "type": "object",
            "properties": {
                "participant": {"type": "string"},
                "amount": {"type": "integer"},
                "deposit": {"$ref": "#/definitions/models.DepositRecord"},
                "pool": {"$ref": "#/definitions/models.Pool"}
            }
        }
    },
    "securityDefinitions": {
        "TelegramInitData": {
            "description": "Telegram Mini App init data for authentication",
            "type": "apiKey",
            "name": "X-Telegram-Init-Data",
            "in": "header"
        }
    }
}`

// SwaggerInfo is registered with swag so gin-swagger can serve it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Prize Pool API",
	Description:      "Pooled-custody prize ledger with weighted-lottery payouts. All endpoints require Telegram init data.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
