package utils

const DefaultLocale = "en"

var SupportedLocales = []string{"en", "pt"}

// Messages are keyed by their English text; English needs no table.
var translations = map[string]map[string]string{
	"pt": {
		"healthy":                 "saudável",
		"not found":               "Não encontrado",
		"internal server error":   "Erro interno do servidor",
		"invalid request body":    "Corpo da requisição inválido",
		"invalid id":              "Identificador inválido",
		"authentication required": "Autenticação necessária",
		"logged out":              "Sessão encerrada",

		"invalid registration data":      "Dados de cadastro inválidos",
		"username already exists":        "Nome de usuário já existe",
		"username and password required": "Usuário e senha são obrigatórios",
		"invalid credentials":            "Credenciais inválidas",
		"session user no longer exists":  "Usuário da sessão não existe mais",

		"assessment not found":                  "Avaliação não encontrada",
		"not allowed to access this assessment": "Não autorizado a acessar esta avaliação",
		"invalid assessment data":               "Dados da avaliação inválidos",
		"invalid assessment type":               "Tipo de avaliação inválido",
		"invalid participant":                   "Participante inválido",
		"participant not found":                 "Participante não encontrado",

		"invalid response":               "Resposta inválida",
		"invalid response data":          "Dados da resposta inválidos",
		"unsupported assessment type":    "Tipo de avaliação não suportado",
		"invalid export format":          "Formato de exportação inválido",
		"invalid test data request":      "Solicitação de dados de teste inválida",
		"assessment has no participants": "A avaliação não possui participantes",

		"invalid analysis":                                 "Análise inválida",
		"invalid feedback request":                         "Solicitação de feedback inválida",
		"no responses to analyze for this assessment":      "Não há respostas para analisar nesta avaliação",
		"failed to generate AI analysis":                   "Erro ao gerar análise com IA",
		"failed to generate visualization recommendations": "Erro ao gerar recomendações de visualização",
		"failed to generate feedback text":                 "Erro ao gerar texto de feedback",
	},
}

// T returns message translated to locale, or message itself when no
// translation exists.
func T(locale, message string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[message]; ok {
			return v
		}
	}
	return message
}
