// Package prompts builds the Portuguese prompt text sent to the generation
// service for exam questions and diagnostics.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tfarias/oabsim/internal/model"
)

// officialDistribution is the fixed per-subject question-count table of the
// official 80-question first-phase exam. It is only encoded into the prompt
// for a "Geral" exam of exactly 80 questions.
var officialDistribution = []struct {
	Subject model.Subject
	Count   int
}{
	{model.SubjectEtica, 8},
	{model.SubjectConstitucional, 7},
	{model.SubjectCivil, 7},
	{model.SubjectProcessualCivil, 7},
	{model.SubjectAdministrativo, 6},
	{model.SubjectPenal, 6},
	{model.SubjectProcessualPenal, 6},
	{model.SubjectTrabalho, 6},
	{model.SubjectProcessualTrabalho, 6},
	{model.SubjectTributario, 5},
	{model.SubjectEmpresarial, 5},
	{model.SubjectDireitosHumanos, 2},
	{model.SubjectInternacional, 2},
	{model.SubjectECA, 2},
	{model.SubjectAmbiental, 2},
	{model.SubjectConsumidor, 2},
	{model.SubjectFilosofia, 2},
}

// Questions builds the generation prompt for a question batch.
func Questions(subject string, count int, recentTopics []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Gere %d questões no estilo da prova da OAB 1ª Fase (FGV).\n", count))

	switch {
	case subject == model.SubjectGeral && count == model.OfficialExamSize:
		sb.WriteString("Siga EXATAMENTE a distribuição oficial da 1ª fase da OAB (80 questões):\n")
		for _, d := range officialDistribution {
			sb.WriteString(fmt.Sprintf("- %s: %d questões\n", d.Subject, d.Count))
		}
	case subject == model.SubjectGeral:
		sb.WriteString("Disciplina: Mistura equilibrada das 17 disciplinas da OAB.\n")
	default:
		sb.WriteString("Disciplina: " + subject + ".\n")
	}

	topics := "Nenhum específico"
	if len(recentTopics) > 0 {
		topics = strings.Join(recentTopics, ", ")
	}
	sb.WriteString("\nREQUISITOS DE NOVIDADE:\n")
	sb.WriteString("- EVITE temas já abordados recentemente: " + topics + ".\n")
	sb.WriteString("- Crie CASOS PRÁTICOS novos, nomes de personagens fictícios variados e situações jurídicas complexas.\n")

	sb.WriteString("\nREQUISITOS TÉCNICOS:\n")
	sb.WriteString("1. 4 alternativas (A, B, C, D), exatamente uma correta.\n")
	sb.WriteString("2. EXPLICAÇÃO DETALHADA: fundamentação jurídica completa, citando ARTIGOS DE LEI (CF, CC, CP, CLT, etc.) e súmulas pertinentes.\n")
	sb.WriteString("3. Responda APENAS com um objeto JSON no formato:\n")
	sb.WriteString(`{"questions": [{"id": "<string>", "subject": "<disciplina>", "text": "<enunciado>", "options": [{"letter": "A", "text": "..."}, {"letter": "B", "text": "..."}, {"letter": "C", "text": "..."}, {"letter": "D", "text": "..."}], "correctOption": "<A|B|C|D>", "explanation": "<fundamentação>"}]}`)
	sb.WriteString("\n")

	return sb.String()
}

// InstantDiagnostic builds the prompt summarizing one finished exam.
func InstantDiagnostic(result model.ExamResult) string {
	parts := make([]string, 0, len(result.Details))
	for _, d := range result.Details {
		verdict := "Erro"
		if d.IsCorrect {
			verdict = "Acerto"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", d.Subject, verdict))
	}

	var sb strings.Builder
	sb.WriteString("Analise este resultado de simulado OAB: " + strings.Join(parts, ", ") + ".\n")
	sb.WriteString(fmt.Sprintf("O aluno acertou %d de %d.\n", result.Score, result.TotalQuestions))
	sb.WriteString("Dê um feedback curto focado no erro mais crítico e mencione a base legal que o aluno deve revisar.\n")
	return sb.String()
}

// historySummary is the bounded view of one result included in the
// historical diagnostic prompt.
type historySummary struct {
	Date   string          `json:"date"`
	Score  int             `json:"score"`
	Total  int             `json:"total"`
	Errors []model.Subject `json:"errors"`
}

// HistoricalDiagnostic builds the strategic diagnostic prompt over the most
// recent results (the caller bounds the slice).
func HistoricalDiagnostic(history []model.ExamResult) string {
	summaries := make([]historySummary, 0, len(history))
	for _, r := range history {
		var errs []model.Subject
		for _, d := range r.Details {
			if !d.IsCorrect {
				errs = append(errs, d.Subject)
			}
		}
		summaries = append(summaries, historySummary{
			Date:   r.Date.Format("2006-01-02T15:04:05Z07:00"),
			Score:  r.Score,
			Total:  r.TotalQuestions,
			Errors: errs,
		})
	}
	data, _ := json.Marshal(summaries)

	var sb strings.Builder
	sb.WriteString("Aja como um mentor especializado em aprovação na OAB.\n")
	sb.WriteString("Analise os resultados históricos do aluno: " + string(data) + ".\n")
	sb.WriteString("Identifique padrões de erro e forneça um plano estratégico.\n")
	sb.WriteString("Responda APENAS com um objeto JSON:\n")
	sb.WriteString(`{"summary": "<análise>", "strengths": ["<matéria>"], "weaknesses": ["<matéria>"], "recommendation": "<plano>"}`)
	sb.WriteString("\n")
	return sb.String()
}
