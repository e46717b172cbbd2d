package domain

// Subject is a static grade-prediction fixture. Trend, risk and confidence are display labels only.
type Subject struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	CurrentGrade    float64         `json:"currentGrade"`
	PredictedFinal  float64         `json:"predictedFinal"`
	Trend           string          `json:"trend"`
	Risk            string          `json:"risk"`
	Confidence      int             `json:"confidence"`
	NextExam        string          `json:"nextExam"`
	Recommendations []string        `json:"recommendations"`
	Progress        SubjectProgress `json:"progress"`
}

type SubjectProgress struct {
	Assignments   int `json:"assignments"`
	Participation int `json:"participation"`
	Exams         int `json:"exams"`
}

type GradeStats struct {
	CurrentGPA        float64 `json:"currentGPA"`
	PredictedGPA      float64 `json:"predictedGPA"`
	TotalSubjects     int     `json:"totalSubjects"`
	AtRiskSubjects    int     `json:"atRiskSubjects"`
	ImprovingSubjects int     `json:"improvingSubjects"`
}
