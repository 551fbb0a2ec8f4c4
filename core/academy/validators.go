package academy

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/tdvu/courtside/core"
)

var (
	usernameTag   = "acctusername"
	usernameText  = "username must be 3-20 characters: letters, digits and underscores only"
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

	fullNameTag  = "acctfullname"
	fullNameText = "each word of the full name must start with an uppercase letter"

	phoneTag   = "acctphone"
	phoneText  = "phone number must start with 0 or +84 followed by 9-10 digits"
	phoneRegex = regexp.MustCompile(`^(0|\+84)[0-9]{9,10}$`)

	birthDateTag  = "acctbirthdate"
	birthDateText = "date of birth must be DD/MM/YYYY and the holder at least 6 years old"
	minAge        = 6

	// password policy: at least 6 characters including a letter and a digit,
	// limited to letters, digits and @$!%*#?&
	pwdMinLen       = 6
	pwdPolicyTag    = "acctpwd"
	pwdPolicyText   = fmt.Sprintf("password must contain at least %d characters including a letter and a digit", pwdMinLen)
	pwdCharsetRegex = regexp.MustCompile(`^[A-Za-z0-9@$!%*#?&]+$`)

	pwdMaxSim      = .7
	pwdAttrSimTag  = "acctpwdtoosim"
	pwdAttrSimText = "password cannot be similar to account attributes"

	nowFunc = time.Now // mockable
)

// InitValidators registers the account validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(usernameTag, usernameValidation)
	core.RegisterCustomTranslation(validate, translator, usernameTag, usernameText)

	_ = validate.RegisterValidation(fullNameTag, fullNameValidation)
	core.RegisterCustomTranslation(validate, translator, fullNameTag, fullNameText)

	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	_ = validate.RegisterValidation(birthDateTag, birthDateValidation)
	core.RegisterCustomTranslation(validate, translator, birthDateTag, birthDateText)

	validate.RegisterStructValidation(accountStructValidation, NewAccount{})
	core.RegisterCustomTranslation(validate, translator, pwdPolicyTag, pwdPolicyText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.Username = core.CleanString(na.Username, true /* lower */)
	na.FullName = core.CleanString(na.FullName)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.PhoneNumber = core.CleanString(na.PhoneNumber)
	na.DateOfBirth = core.CleanString(na.DateOfBirth)
	return validate.Struct(na)
}

func (ua *UpdateAccount) Validate(validate *validator.Validate) error {
	ua.Username = core.CleanString(ua.Username, true /* lower */)
	ua.FullName = core.CleanString(ua.FullName)
	ua.Email = core.CleanString(ua.Email, true /* lower */)
	ua.PhoneNumber = core.CleanString(ua.PhoneNumber)
	ua.DateOfBirth = core.CleanString(ua.DateOfBirth)
	return validate.Struct(ua)
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.CourseName = core.CleanString(nc.CourseName)
	nc.Description = core.CleanString(nc.Description)
	nc.Level = core.CleanString(nc.Level)
	return validate.Struct(nc)
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.Content = core.CleanString(nf.Content)
	return validate.Struct(nf)
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Content = core.CleanString(nl.Content)
	return validate.Struct(nl)
}

// ValidPassword applies the password policy without the rest of the account,
// for flows that only change the password.
func ValidPassword(pwd string, attrs ...string) error {
	if !passwordMeetsPolicy(pwd) {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdPolicyText})
	}
	if passwordTooSimilar(pwd, attrs...) {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdAttrSimText})
	}
	return nil
}

// Custom Validators

func usernameValidation(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

// fullNameValidation checks that every word starts with an uppercase letter and
// continues in lowercase. Unicode-aware so Vietnamese names pass.
func fullNameValidation(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	words := strings.Fields(name)
	if len(words) == 0 {
		return false
	}
	for _, word := range words {
		for i, char := range word {
			if !unicode.IsLetter(char) {
				return false
			}
			if i == 0 && !unicode.IsUpper(char) {
				return false
			}
			if i > 0 && unicode.IsUpper(char) {
				return false
			}
		}
	}
	return true
}

func phoneValidation(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func birthDateValidation(fl validator.FieldLevel) bool {
	age, err := Age(fl.Field().String(), nowFunc())
	if err != nil {
		return false
	}
	return age >= minAge
}

// accountStructValidation applies the password policy to NewAccount.
func accountStructValidation(sl validator.StructLevel) {
	na, ok := sl.Current().Interface().(NewAccount)
	if !ok {
		return
	}
	if !passwordMeetsPolicy(na.Password) {
		sl.ReportError(na.Password, "password", "Password", pwdPolicyTag, "")
		return
	}
	if passwordTooSimilar(na.Password, na.Username, na.FullName, na.Email) {
		sl.ReportError(na.Password, "password", "Password", pwdAttrSimTag, "")
	}
}

func passwordMeetsPolicy(pwd string) bool {
	if len(pwd) < pwdMinLen || !pwdCharsetRegex.MatchString(pwd) {
		return false
	}
	var hasLetter, hasDigit bool
	for _, char := range pwd {
		if unicode.IsLetter(char) {
			hasLetter = true
		}
		if unicode.IsDigit(char) {
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func passwordTooSimilar(pwd string, attrs ...string) bool {
	getRatio := func(pass, attr string) float64 {
		if attr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(attr, "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if getRatio(lpwd, strings.ToLower(attr)) >= pwdMaxSim {
			return true
		}
	}
	return false
}
