package grade

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/grading"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("grade not found")
)

type (
	Repository interface {
		CreateGrade(ctx context.Context, g Grade) (Grade, error)
		GetGrade(ctx context.Context, id string) (Grade, error)
		// QueryGrades returns the requested page, latest graded first, plus the total count.
		QueryGrades(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Grade, int, error)
		UpdateGrade(ctx context.Context, g Grade) (Grade, error)
		DeleteGrade(ctx context.Context, id string) error
		// CountGrades counts the grades of courseIDs; no IDs counts everything.
		CountGrades(ctx context.Context, courseIDs []string) (int, error)
		// Percentages returns score/max_score*100 of every grade.
		Percentages(ctx context.Context) ([]float64, error)
	}

	// CourseCredits resolves the credits of courses for GPA weighting.
	CourseCredits interface {
		CreditsByID(ctx context.Context, ids []string) (map[string]int, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, gradedBy string, ng NewGrade) (Grade, error)
		GetByID(ctx context.Context, id string) (Grade, error)
		Query(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Grade, int, error)
		Update(ctx context.Context, id string, ug UpdateGrade) (Grade, error)
		Delete(ctx context.Context, id string) error
		StudentReport(ctx context.Context, studentID string) (Report, error)
		Count(ctx context.Context, courseIDs []string) (int, error)
		Distribution(ctx context.Context) ([]grading.LetterCount, error)
	}

	Service struct {
		repo    Repository
		credits CourseCredits
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, credits CourseCredits) *Service {
	return &Service{repo: repo, credits: credits}
}

func (svc *Service) Create(ctx context.Context, gradedBy string, ng NewGrade) (Grade, error) {
	return svc.repo.CreateGrade(ctx, Grade{
		StudentID:  ng.StudentID,
		CourseID:   ng.CourseID,
		Assignment: ng.Assignment,
		Score:      *ng.Score,
		MaxScore:   ng.MaxScore,
		Type:       ng.Type,
		GradedBy:   gradedBy,
		GradedAt:   time.Now().UTC(),
		Comment:    ng.Comment,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Grade, error) {
	return svc.repo.GetGrade(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Grade, int, error) {
	return svc.repo.QueryGrades(ctx, filter, page)
}

// Update applies an already validated UpdateGrade.
func (svc *Service) Update(ctx context.Context, id string, ug UpdateGrade) (Grade, error) {
	g, err := svc.repo.GetGrade(ctx, id)
	if err != nil {
		return Grade{}, err
	}
	ug.apply(&g)
	if err = checkScore(g.Score, g.MaxScore); err != nil {
		return Grade{}, err
	}
	return svc.repo.UpdateGrade(ctx, g)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteGrade(ctx, id)
}

// StudentReport gathers a student's grades and aggregates them per course and into a GPA.
func (svc *Service) StudentReport(ctx context.Context, studentID string) (Report, error) {
	grades, _, err := svc.repo.QueryGrades(ctx, &QueryFilter{StudentID: studentID}, core.Pagination{})
	if err != nil {
		return Report{}, err
	}

	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, g := range grades {
		if !seen[g.CourseID] {
			seen[g.CourseID] = true
			ids = append(ids, g.CourseID)
		}
	}
	credits := map[string]int{}
	if len(ids) > 0 {
		if credits, err = svc.credits.CreditsByID(ctx, ids); err != nil {
			return Report{}, err
		}
	}

	records := make([]grading.ScoreRecord, 0, len(grades))
	for _, g := range grades {
		records = append(records, g.record(credits[g.CourseID]))
	}
	avgs := grading.CourseAverages(records)

	results := make([]CourseResult, 0, len(avgs))
	for _, avg := range avgs {
		pct := avg.Percentage()
		results = append(results, CourseResult{
			CourseID:   avg.CourseID,
			Credits:    avg.Credits,
			Percentage: roundPct(pct),
			Letter:     grading.Classify(pct),
			Points:     grading.GradePoint(pct),
		})
	}

	if grades == nil {
		grades = []Grade{}
	}
	gpa := grading.GPA(avgs)
	return Report{Grades: grades, Courses: results, GPA: gpa, Class: grading.Class(gpa)}, nil
}

func (svc *Service) Count(ctx context.Context, courseIDs []string) (int, error) {
	return svc.repo.CountGrades(ctx, courseIDs)
}

// Distribution counts every grade's letter, in band order.
func (svc *Service) Distribution(ctx context.Context) ([]grading.LetterCount, error) {
	pcts, err := svc.repo.Percentages(ctx)
	if err != nil {
		return nil, err
	}
	return grading.Distribution(pcts), nil
}

func roundPct(pct float64) float64 {
	f, _ := decimal.NewFromFloat(pct).Round(1).Float64()
	return f
}
