package approval

import (
	"encoding/json"
	"testing"

	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	t.Run("training", func(t *testing.T) {
		p, err := DecodePayload(TypeTraining, json.RawMessage(`{"course_id":"c1","course_name":"Go","reason":"team needs it"}`))

		require.NoError(t, err)
		training, ok := p.(*TrainingPayload)
		require.True(t, ok)
		assert.Equal(t, "Go", training.CourseName)
		assert.Equal(t, TypeTraining, p.Type())
	})

	t.Run("extra attempt needs a prior attempt", func(t *testing.T) {
		_, err := DecodePayload(TypeExtraAttempt, json.RawMessage(`{"course_id":"c1","course_name":"Go","current_attempts":0,"reason":"x"}`))

		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "current_attempts")
	})

	t.Run("skill verification needs skills", func(t *testing.T) {
		_, err := DecodePayload(TypeSkillVerification, json.RawMessage(`{"skill_ids":[],"reason":"x"}`))

		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "skill_ids")
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := DecodePayload(TypeSelfLearning, json.RawMessage(`{"course_id":`))
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := DecodePayload(TypeSelfLearning, nil)
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := DecodePayload(RequestType("vacation"), json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ErrInvalidRequestType)
	})
}

func TestApprover_CanResolve(t *testing.T) {
	dm := "dm-1"
	other := "emp-9"
	dmRequest := Request{CompanyID: "c1", ApproverRole: ApproverDecisionMaker, ApproverID: &dm}
	hrRequest := Request{CompanyID: "c1", ApproverRole: ApproverHR}

	assert.True(t, Approver{Role: ApproverDecisionMaker, CompanyID: "c1", EmployeeID: &dm}.CanResolve(dmRequest))
	assert.False(t, Approver{Role: ApproverDecisionMaker, CompanyID: "c1", EmployeeID: &other}.CanResolve(dmRequest))
	assert.False(t, Approver{Role: ApproverHR, CompanyID: "c1", UserID: "u1"}.CanResolve(dmRequest))
	assert.True(t, Approver{Role: ApproverHR, CompanyID: "c1", UserID: "u1"}.CanResolve(hrRequest))
	assert.False(t, Approver{Role: ApproverHR, CompanyID: "c2", UserID: "u1"}.CanResolve(hrRequest))
}

func TestRequestType_IsLearningPathGoverned(t *testing.T) {
	assert.True(t, TypeTraining.IsLearningPathGoverned())
	assert.True(t, TypeSkillVerification.IsLearningPathGoverned())
	assert.True(t, TypeSelfLearning.IsLearningPathGoverned())
	assert.False(t, TypeExtraAttempt.IsLearningPathGoverned())
}
