package grades

import (
	"math"

	"github.com/fastygo/planner/domain"
)

const (
	TrendUp   = "up"
	TrendDown = "down"

	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// UseCase serves the grade-prediction dashboard. The subjects are fixed sample data.
type UseCase struct {
	subjects []domain.Subject
}

func New() *UseCase {
	return &UseCase{subjects: fixtures()}
}

// Overview is the payload of the grades dashboard.
type Overview struct {
	Subjects []domain.Subject  `json:"subjects"`
	Stats    domain.GradeStats `json:"stats"`
}

func (uc *UseCase) Subjects() []domain.Subject {
	out := make([]domain.Subject, len(uc.subjects))
	for i, s := range uc.subjects {
		s.Recommendations = append([]string(nil), s.Recommendations...)
		out[i] = s
	}
	return out
}

func (uc *UseCase) Overview() Overview {
	subjects := uc.Subjects()
	return Overview{Subjects: subjects, Stats: CalculateOverallStats(subjects)}
}

// CalculateOverallStats averages grades to one decimal and counts risk and trend labels.
func CalculateOverallStats(subjects []domain.Subject) domain.GradeStats {
	stats := domain.GradeStats{TotalSubjects: len(subjects)}
	if len(subjects) == 0 {
		return stats
	}
	var current, predicted float64
	for _, s := range subjects {
		current += s.CurrentGrade
		predicted += s.PredictedFinal
		if s.Risk == RiskHigh || s.Risk == RiskMedium {
			stats.AtRiskSubjects++
		}
		if s.Trend == TrendUp {
			stats.ImprovingSubjects++
		}
	}
	n := float64(len(subjects))
	stats.CurrentGPA = roundTenth(current / n)
	stats.PredictedGPA = roundTenth(predicted / n)
	return stats
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func fixtures() []domain.Subject {
	return []domain.Subject{
		{
			ID:             "math",
			Name:           "Matemáticas III",
			CurrentGrade:   8.5,
			PredictedFinal: 8.7,
			Trend:          TrendUp,
			Risk:           RiskLow,
			Confidence:     92,
			NextExam:       "2024-01-20",
			Recommendations: []string{
				"Continúa con tu ritmo actual de estudio",
				"Practica más ejercicios de integrales",
				"Revisa los temas de la clase del viernes",
			},
			Progress: domain.SubjectProgress{Assignments: 85, Participation: 90, Exams: 82},
		},
		{
			ID:             "physics",
			Name:           "Física II",
			CurrentGrade:   7.2,
			PredictedFinal: 6.8,
			Trend:          TrendDown,
			Risk:           RiskMedium,
			Confidence:     78,
			NextExam:       "2024-01-18",
			Recommendations: []string{
				"Dedica más tiempo a resolver problemas prácticos",
				"Únete al grupo de estudio de Física",
				"Consulta con el profesor sobre temas difíciles",
				"Repasa los conceptos de mecánica cuántica",
			},
			Progress: domain.SubjectProgress{Assignments: 70, Participation: 65, Exams: 75},
		},
		{
			ID:             "chemistry",
			Name:           "Química Orgánica",
			CurrentGrade:   9.1,
			PredictedFinal: 9.3,
			Trend:          TrendUp,
			Risk:           RiskLow,
			Confidence:     95,
			NextExam:       "2024-01-22",
			Recommendations: []string{
				"Excelente trabajo, mantén el nivel",
				"Ayuda a compañeros que necesiten apoyo",
				"Considera tomar cursos avanzados",
			},
			Progress: domain.SubjectProgress{Assignments: 95, Participation: 98, Exams: 92},
		},
		{
			ID:             "history",
			Name:           "Historia Contemporánea",
			CurrentGrade:   6.8,
			PredictedFinal: 6.5,
			Trend:          TrendDown,
			Risk:           RiskHigh,
			Confidence:     85,
			NextExam:       "2024-01-16",
			Recommendations: []string{
				"URGENTE: Mejora tu participación en clase",
				"Entrega todas las tareas pendientes",
				"Programa sesiones de estudio adicionales",
				"Considera tutoría personalizada",
			},
			Progress: domain.SubjectProgress{Assignments: 60, Participation: 55, Exams: 70},
		},
	}
}
