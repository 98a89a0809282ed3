package functions

import (
	"context"
	"math"
	"strings"

	"github.com/skosovsky/tooluse"
)

const maxAge = 150

// UserData is the input of format_user_data.
type UserData struct {
	Name  string  `json:"name" description:"Full name"`
	Age   float64 `json:"age" description:"Age in years"`
	Email string  `json:"email,omitempty" description:"Email address"`
}

// FormattedUser is the normalised output of format_user_data.
type FormattedUser struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Email string `json:"email,omitempty"`
}

// Validate rejects a missing name or age, an age outside [0, 150] and an email without "@".
func (u UserData) Validate() error {
	if u.Name == "" || u.Age == 0 {
		return invalid("name and age are required")
	}
	if u.Age < 0 || u.Age > maxAge {
		return invalid("age must be between 0 and 150")
	}
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		return invalid("invalid email format")
	}
	return nil
}

func invalid(reason string) error {
	return &tooluse.ClientError{Reason: reason, Err: tooluse.ErrValidation}
}

// FormatUserData validates u and returns it with the name trimmed, the age truncated
// to whole years and the email trimmed and lowercased. An empty email is omitted.
func FormatUserData(_ context.Context, u UserData) (FormattedUser, error) {
	if err := u.Validate(); err != nil {
		return FormattedUser{}, err
	}
	return FormattedUser{
		Name:  strings.TrimSpace(u.Name),
		Age:   int(math.Trunc(u.Age)),
		Email: strings.ToLower(strings.TrimSpace(u.Email)),
	}, nil
}
