package grade

import (
	"errors"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

var (
	typeTag  = "gradetype"
	typeText = "type must be one of assignment, quiz, midterm, final, project"

	errScoreAboveMax = errors.New("score cannot exceed max score")
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(typeTag, gradeTypeValidation)
	core.RegisterCustomTranslation(validate, translator, typeTag, typeText)
}

func gradeTypeValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, t := range AllTypes {
		if t == val {
			return true
		}
	}
	return false
}

func checkScore(score, maxScore float64) error {
	if score > maxScore {
		return core.NewValidationError(nil, core.FieldError{Field: "score", Error: errScoreAboveMax.Error()})
	}
	return nil
}
