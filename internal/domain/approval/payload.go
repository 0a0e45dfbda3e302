package approval

import (
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/validator"
)

// Payload is the type-specific body of a request. Validation is the only
// per-type behavior; routing and resolution are shared.
type Payload interface {
	Type() RequestType
	Validate() error
}

type TrainingPayload struct {
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	Reason     string `json:"reason"`
}

func (TrainingPayload) Type() RequestType { return TypeTraining }

func (p TrainingPayload) Validate() error {
	var errs validator.ValidationErrors
	errs.Required("course_id", p.CourseID)
	errs.Required("course_name", p.CourseName)
	errs.Required("reason", p.Reason)
	errs.MaxLength("reason", p.Reason, 2000)
	return errs.Err()
}

type SkillVerificationPayload struct {
	SkillIDs []string `json:"skill_ids"`
	Reason   string   `json:"reason"`
}

func (SkillVerificationPayload) Type() RequestType { return TypeSkillVerification }

func (p SkillVerificationPayload) Validate() error {
	var errs validator.ValidationErrors
	if len(p.SkillIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "skill_ids", Message: "skill_ids must contain at least one skill"})
	}
	for i, id := range p.SkillIDs {
		errs.Required(fmt.Sprintf("skill_ids[%d]", i), id)
	}
	errs.Required("reason", p.Reason)
	errs.MaxLength("reason", p.Reason, 2000)
	return errs.Err()
}

type SelfLearningPayload struct {
	CourseID     string  `json:"course_id"`
	CourseName   string  `json:"course_name"`
	LearningPath *string `json:"learning_path,omitempty"`
	Reason       string  `json:"reason"`
}

func (SelfLearningPayload) Type() RequestType { return TypeSelfLearning }

func (p SelfLearningPayload) Validate() error {
	var errs validator.ValidationErrors
	errs.Required("course_id", p.CourseID)
	errs.Required("course_name", p.CourseName)
	errs.Required("reason", p.Reason)
	errs.MaxLength("reason", p.Reason, 2000)
	return errs.Err()
}

type ExtraAttemptPayload struct {
	CourseID        string `json:"course_id"`
	CourseName      string `json:"course_name"`
	CurrentAttempts int    `json:"current_attempts"`
	Reason          string `json:"reason"`
}

func (ExtraAttemptPayload) Type() RequestType { return TypeExtraAttempt }

func (p ExtraAttemptPayload) Validate() error {
	var errs validator.ValidationErrors
	errs.Required("course_id", p.CourseID)
	errs.Required("course_name", p.CourseName)
	if p.CurrentAttempts < 1 {
		errs = append(errs, validator.ValidationError{Field: "current_attempts", Message: "current_attempts must be at least 1"})
	}
	errs.Required("reason", p.Reason)
	errs.MaxLength("reason", p.Reason, 2000)
	return errs.Err()
}

var payloadFactories = map[RequestType]func() Payload{
	TypeTraining:          func() Payload { return &TrainingPayload{} },
	TypeSkillVerification: func() Payload { return &SkillVerificationPayload{} },
	TypeSelfLearning:      func() Payload { return &SelfLearningPayload{} },
	TypeExtraAttempt:      func() Payload { return &ExtraAttemptPayload{} },
}

// DecodePayload parses and validates raw JSON as the payload variant of t.
func DecodePayload(t RequestType, raw json.RawMessage) (Payload, error) {
	factory, ok := payloadFactories[t]
	if !ok {
		return nil, ErrInvalidRequestType
	}
	if len(raw) == 0 {
		return nil, ErrInvalidPayload
	}
	p := factory()
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
