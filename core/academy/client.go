package academy

import (
	"context"
	"time"
)

// Client is what this application needs from the remote platform backend.
// The backend owns every durable record; this side never persists anything.
type Client interface {
	// auth & accounts
	Login(ctx context.Context, username, password string) (Account, error)
	Register(ctx context.Context, na NewAccount) error
	CountAccounts(ctx context.Context) (int, error)
	Accounts(ctx context.Context) ([]Account, error)
	SearchAccounts(ctx context.Context, name string) ([]Account, error)
	AccountByUsername(ctx context.Context, username string) (Account, error)
	UpdateAccount(ctx context.Context, id string, ua UpdateAccount) error
	DeleteAccount(ctx context.Context, id string) error
	ChangePassword(ctx context.Context, id, newPassword string) error

	// courses
	Courses(ctx context.Context) ([]Course, error)
	Course(ctx context.Context, id string) (Course, error)
	CountCourses(ctx context.Context) (int, error)
	SearchCourses(ctx context.Context, keyword string) ([]Course, error)
	CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
	DeleteCourse(ctx context.Context, id string) error
	HighestRatedCourses(ctx context.Context) ([]Course, error)
	HighestPurchasedCourses(ctx context.Context) ([]Course, error)
	CourseRevenueInPeriod(ctx context.Context, start, end time.Time) ([]CourseRevenue, error)

	// lessons
	Lesson(ctx context.Context, id string) (Lesson, error)
	CourseLessons(ctx context.Context, courseID string) ([]Lesson, error)
	UploadLesson(ctx context.Context, nl NewLesson) error

	// feedbacks
	CourseFeedbacks(ctx context.Context, courseID string) ([]Feedback, error)
	AddFeedback(ctx context.Context, nf NewFeedback) error

	// registrations
	TotalFeePaid(ctx context.Context) (float64, error)
	RevenueBetweenMonths(ctx context.Context, startYear, startMonth, endYear, endMonth int) (MonthlyRevenue, error)
}
