package dashboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/dashboard"
	"github.com/trezcool/campus/storage/database/dummy"
)

func TestNewService_missingDeps(t *testing.T) {
	db := dummydb.Open()
	assert.Panics(t, func() {
		dashboard.NewService(dashboard.Deps{
			Courses: course.NewService(dummydb.NewCourseRepository(db)),
		})
	})
}
