// Package grading turns raw assignment scores into letter grades and credit-weighted GPAs.
//
// A single ordered table of bands drives both the letter and the grade-point scales,
// so the two can never disagree on a threshold.
package grading

import "github.com/shopspring/decimal"

// Band is one row of the grading table: any percentage >= Threshold earns Letter and Points.
type Band struct {
	Threshold float64 `json:"threshold"`
	Letter    string  `json:"letter"`
	Points    float64 `json:"points"`
}

// Bands is ordered from the highest threshold down; the last band catches everything else.
var Bands = []Band{
	{Threshold: 70, Letter: "A", Points: 5.0},
	{Threshold: 60, Letter: "B", Points: 4.0},
	{Threshold: 50, Letter: "C", Points: 3.0},
	{Threshold: 45, Letter: "D", Points: 2.0},
	{Threshold: 0, Letter: "F", Points: 0.0},
}

// ClassBand is one row of the degree class table: any GPA >= Threshold earns Class.
type ClassBand struct {
	Threshold float64 `json:"threshold"`
	Class     string  `json:"class"`
}

// Classes is ordered from the highest threshold down, like Bands.
var Classes = []ClassBand{
	{Threshold: 4.5, Class: "First Class"},
	{Threshold: 3.5, Class: "Second Class Upper"},
	{Threshold: 2.5, Class: "Second Class Lower"},
	{Threshold: 1.5, Class: "Third Class"},
	{Threshold: 0, Class: "Pass"},
}

var (
	hundred   = decimal.NewFromInt(100)
	gpaPlaces = int32(2)
)

type (
	// ScoreRecord is one graded assignment. MaxScore must be > 0 and Score <= MaxScore.
	ScoreRecord struct {
		CourseID string
		Credits  int
		Score    float64
		MaxScore float64
	}

	// CourseAverage is the unweighted mean of a course's fractional scores, in [0,1].
	CourseAverage struct {
		CourseID        string  `json:"course_id"`
		Credits         int     `json:"credits"`
		FractionalScore float64 `json:"fractional_score"`
	}

	LetterCount struct {
		Letter string `json:"letter"`
		Count  int    `json:"count"`
	}
)

// Percentage returns the course average on a 0-100 scale.
func (ca CourseAverage) Percentage() float64 {
	pct, _ := decimal.NewFromFloat(ca.FractionalScore).Mul(hundred).Float64()
	return pct
}

func band(percentage float64) Band {
	for _, b := range Bands {
		if percentage >= b.Threshold {
			return b
		}
	}
	return Bands[len(Bands)-1]
}

// Classify maps a percentage to its letter grade.
func Classify(percentage float64) string {
	return band(percentage).Letter
}

// GradePoint maps a percentage to its grade point on the 0-5 scale.
func GradePoint(percentage float64) float64 {
	return band(percentage).Points
}

// Class maps a GPA to its degree class.
func Class(gpa float64) string {
	for _, c := range Classes {
		if gpa >= c.Threshold {
			return c.Class
		}
	}
	return Classes[len(Classes)-1].Class
}

// Percentage returns score/maxScore on a 0-100 scale. maxScore must be > 0.
func Percentage(score, maxScore float64) float64 {
	pct, _ := decimal.NewFromFloat(score).Div(decimal.NewFromFloat(maxScore)).Mul(hundred).Float64()
	return pct
}

// CourseAverages groups records by course, in first-seen order, and averages
// score/maxScore within each course. Every assignment weighs the same regardless of its MaxScore.
func CourseAverages(records []ScoreRecord) []CourseAverage {
	type acc struct {
		credits int
		sum     decimal.Decimal
		n       int64
	}

	order := make([]string, 0)
	byCourse := make(map[string]*acc)
	for _, rec := range records {
		a, ok := byCourse[rec.CourseID]
		if !ok {
			a = &acc{credits: rec.Credits, sum: decimal.Zero}
			byCourse[rec.CourseID] = a
			order = append(order, rec.CourseID)
		}
		frac := decimal.NewFromFloat(rec.Score).Div(decimal.NewFromFloat(rec.MaxScore))
		a.sum = a.sum.Add(frac)
		a.n++
	}

	avgs := make([]CourseAverage, 0, len(order))
	for _, id := range order {
		a := byCourse[id]
		frac, _ := a.sum.Div(decimal.NewFromInt(a.n)).Float64()
		avgs = append(avgs, CourseAverage{CourseID: id, Credits: a.credits, FractionalScore: frac})
	}
	return avgs
}

// ComputeGPA returns the credit-weighted mean of per-course grade points, rounded
// half away from zero to 2 decimal places. No records (or no credits) yields 0.
func ComputeGPA(records []ScoreRecord) float64 {
	return GPA(CourseAverages(records))
}

// GPA is ComputeGPA over already averaged courses.
func GPA(avgs []CourseAverage) float64 {
	weighted := decimal.Zero
	credits := decimal.Zero
	for _, avg := range avgs {
		cr := decimal.NewFromInt(int64(avg.Credits))
		pts := decimal.NewFromFloat(GradePoint(avg.Percentage()))
		weighted = weighted.Add(pts.Mul(cr))
		credits = credits.Add(cr)
	}
	if credits.IsZero() {
		return 0
	}
	gpa, _ := weighted.Div(credits).Round(gpaPlaces).Float64()
	return gpa
}

// Distribution counts the letter of each percentage. Every band is reported, in table order.
func Distribution(percentages []float64) []LetterCount {
	counts := make(map[string]int, len(Bands))
	for _, pct := range percentages {
		counts[Classify(pct)]++
	}
	dist := make([]LetterCount, 0, len(Bands))
	for _, b := range Bands {
		dist = append(dist, LetterCount{Letter: b.Letter, Count: counts[b.Letter]})
	}
	return dist
}
