// Package prompt holds the pt-BR texts sent to the model alongside images.
package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"exam-analyzer-go/internal/domain/exam"
)

const (
	ReferenceHeader = "**IMAGENS DE REFERÊNCIA (exames normais para comparação):**"
	PatientHeader   = "\n**EXAME DO PACIENTE (imagem para análise):**"
)

// ReferenceLabel precedes the i-th (zero based) reference image.
func ReferenceLabel(i int) string {
	return fmt.Sprintf("Referência %d - Exame normal:", i+1)
}

// Source distinguishes file based analyses from in-memory uploads; the
// two label the requester's description differently.
type Source int

const (
	FromPath Source = iota
	FromBytes
)

// DescriptionPart returns the text that carries the requester's notes.
func DescriptionPart(src Source, description string) string {
	if src == FromPath {
		return "\n**Informações adicionais do solicitante:** " + description
	}
	return "\n**Informações adicionais:** " + description
}

// DisplayName turns "raio_x_torax" into "Raio X Torax".
func DisplayName(t exam.Type) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(string(t), "_", " "))
}

// BuildInstructions returns the analysis instructions for t.
func BuildInstructions(t exam.Type) string {
	return fmt.Sprintf(instructionsTemplate, DisplayName(t))
}

const instructionsTemplate = `
Você é um assistente de análise de imagens médicas especializado.
Sua função é auxiliar médicos na interpretação de exames de imagem.

**AVISO IMPORTANTE:** Esta análise é uma ferramenta de suporte e NÃO substitui
o diagnóstico de um médico especialista. Sempre consulte um profissional de saúde.

Tipo de exame detectado: %s

Você recebeu:
1. Uma imagem de exame do paciente (última imagem enviada)
2. Imagem(ns) de referência de exames normais (imagens anteriores)

Por favor, realize uma análise comparativa detalhada seguindo esta estrutura:

## 1. IDENTIFICAÇÃO DO EXAME
- Tipo de exame e região anatômica
- Qualidade técnica da imagem
- Plano/corte da imagem (quando aplicável)

## 2. COMPARAÇÃO COM PADRÃO NORMAL
- Estruturas que apresentam aspecto normal
- Diferenças observadas em relação ao padrão de referência
- Alterações de sinal, densidade, forma ou tamanho (se houver)

## 3. ACHADOS PRINCIPAIS
- Liste as principais alterações identificadas
- Localização precisa de cada achado
- Características das alterações (dimensões estimadas, bordas, intensidade)

## 4. IMPRESSÃO DIAGNÓSTICA
- Hipóteses diagnósticas em ordem de probabilidade
- Correlação com possíveis condições clínicas
- Grau de certeza dos achados

## 5. RECOMENDAÇÕES
- Exames complementares sugeridos (se necessário)
- Urgência de avaliação médica (baixa/média/alta)
- Observações adicionais relevantes

Seja preciso, objetivo e utilize terminologia médica adequada.
Indique claramente quando há limitações na análise.
`
