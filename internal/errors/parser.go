package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code and user-facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a persistence error into a safe code and message.
// context names the operation, e.g. "create menu".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Ocorreu um erro no servidor"}
	}

	errLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	}

	// postgres 23505 and sqlite UNIQUE failures
	if strings.Contains(errLower, "duplicate key") ||
		strings.Contains(errLower, "unique constraint") ||
		strings.Contains(errLower, "unique failed") {
		return parseDuplicateKeyError(errLower)
	}

	if strings.Contains(errLower, "foreign key constraint") {
		return ErrorInfo{Code: ResourceConflict, Message: "Existem dados vinculados a este registro"}
	}

	if strings.Contains(errLower, "violates not-null constraint") || strings.Contains(errLower, "not null constraint failed") {
		return ErrorInfo{Code: ValidationRequired, Message: "Campo obrigatório não informado"}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "Falha ao conectar a um serviço externo. Tente novamente em instantes",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Este e-mail já está em uso"}
	case strings.Contains(errLower, "stores.user_id") || strings.Contains(errLower, "idx_stores_user_id"):
		return ErrorInfo{Code: StoreAlreadyExists, Message: "Você já possui um estabelecimento cadastrado"}
	case strings.Contains(errLower, "slug"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Este identificador já está em uso"}
	default:
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Registro já existente"}
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "store"):
		return "Estabelecimento não encontrado"
	case strings.Contains(contextLower, "menu"):
		return "Cardápio não encontrado"
	case strings.Contains(contextLower, "section"):
		return "Seção não encontrada"
	case strings.Contains(contextLower, "dish"):
		return "Prato não encontrado"
	case strings.Contains(contextLower, "user"):
		return "Usuário não encontrado"
	}
	return "Registro não encontrado"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "Erro ao cadastrar. Tente novamente em instantes"
	case strings.Contains(contextLower, "update"), strings.Contains(contextLower, "reorder"):
		return "Erro ao atualizar. Tente novamente em instantes"
	case strings.Contains(contextLower, "delete"):
		return "Erro ao excluir. Tente novamente em instantes"
	}
	return "Ocorreu um erro no servidor. Tente novamente em instantes"
}

// ParseAndRespond parses err and writes it with statusCode
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
