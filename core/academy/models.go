package academy

import (
	"fmt"
	"io"
	"time"
)

// Account roles as defined by the platform backend.
const (
	RoleStudent = "STUDENT"
	RoleTeacher = "TEACHER"
	RoleAdmin   = "ADMIN"
)

// Course levels as defined by the platform backend.
const (
	LevelBeginner     = "BEGINNER"
	LevelIntermediate = "INTERMEDIATE"
	LevelAdvanced     = "ADVANCED"
)

type (
	Account struct {
		ID          string `json:"id"`
		Username    string `json:"username"`
		FullName    string `json:"fullName"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
		DateOfBirth string `json:"dateOfBirth"` // DD/MM/YYYY
		Role        string `json:"role"`
		Verified    bool   `json:"verified"`
	}

	NewAccount struct {
		Username    string `json:"username" validate:"required,acctusername"`
		Password    string `json:"password" validate:"required"`
		FullName    string `json:"fullName" validate:"required,acctfullname"`
		Email       string `json:"email" validate:"required,email"`
		PhoneNumber string `json:"phoneNumber" validate:"required,acctphone"`
		DateOfBirth string `json:"dateOfBirth" validate:"required,acctbirthdate"`
		Role        string `json:"role" validate:"required,oneof=STUDENT TEACHER ADMIN"`
	}

	UpdateAccount struct {
		Username    string `json:"username" validate:"omitempty,acctusername"`
		FullName    string `json:"fullName" validate:"omitempty,acctfullname"`
		Email       string `json:"email" validate:"omitempty,email"`
		PhoneNumber string `json:"phoneNumber" validate:"omitempty,acctphone"`
		DateOfBirth string `json:"dateOfBirth" validate:"omitempty,acctbirthdate"`
		Role        string `json:"role" validate:"omitempty,oneof=STUDENT TEACHER ADMIN"`
	}

	Course struct {
		ID            string  `json:"id"`
		CourseName    string  `json:"courseName"`
		Description   string  `json:"description"`
		Level         string  `json:"level"`
		Fee           float64 `json:"fee"` // in thousands of VND
		Rating        float64 `json:"rating,omitempty"`
		PurchaseCount int     `json:"purchaseCount,omitempty"`
	}

	NewCourse struct {
		CourseName  string  `json:"courseName" validate:"required"`
		Description string  `json:"description" validate:"required"`
		Level       string  `json:"level" validate:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
		Fee         float64 `json:"fee" validate:"required,gt=0"`
	}

	Lesson struct {
		ID          string `json:"id"`
		CourseID    string `json:"courseId"`
		Title       string `json:"title"`
		Content     string `json:"content"`
		LessonOrder int    `json:"lessonOrder"`
		VideoURL    string `json:"videoUrl"`
		ImageURL    string `json:"imageUrl"`
	}

	// Upload is a file part of a multipart lesson upload.
	Upload struct {
		Filename    string
		ContentType string
		Content     io.Reader
	}

	NewLesson struct {
		CourseID    string `validate:"required"`
		Title       string `validate:"required"`
		Content     string `validate:"required"`
		LessonOrder int    `validate:"gte=1"`
		VideoFile   Upload
		ImageFile   Upload
	}

	Feedback struct {
		ID        string `json:"id"`
		StudentID string `json:"studentId"`
		CourseID  string `json:"courseId"`
		Content   string `json:"content"`
		Rating    int    `json:"rating"`
	}

	NewFeedback struct {
		StudentID string `json:"studentId" validate:"required"`
		CourseID  string `json:"courseId" validate:"required"`
		Content   string `json:"content" validate:"required"`
		Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	}

	// CourseRevenue is one row of the per-course revenue report.
	CourseRevenue struct {
		CourseID   string  `json:"courseId"`
		CourseName string  `json:"courseName"`
		Revenue    float64 `json:"revenue"`
	}

	// MonthlyRevenue maps "YYYY-MM" to revenue for that month.
	MonthlyRevenue map[string]float64

	// Stats aggregates the platform-wide numbers shown on the statistics screen.
	Stats struct {
		TotalRevenue  float64 `json:"total_revenue"`
		TotalStudents int     `json:"total_students"`
		TotalCourses  int     `json:"total_courses"`
	}
)

// BirthDateLayout is the backend's birth date format.
const BirthDateLayout = "02/01/2006"

// Age returns the account holder's age in full years at ref.
func Age(dateOfBirth string, ref time.Time) (int, error) {
	dob, err := time.Parse(BirthDateLayout, dateOfBirth)
	if err != nil {
		return 0, fmt.Errorf("parsing date of birth: %w", err)
	}
	years := ref.Year() - dob.Year()
	if ref.YearDay() < dob.YearDay() {
		years--
	}
	return years, nil
}
