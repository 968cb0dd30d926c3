package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "mockai/internal/errors"
	"mockai/internal/models"
)

func TestQuestionRepository(t *testing.T) {
	tdb := SetupTestDB(t)
	defer tdb.Cleanup(t)

	repo := NewQuestionRepository(tdb.Database)
	ctx := context.Background()

	t.Run("creates and finds question", func(t *testing.T) {
		tdb.ClearCollection(t, QuestionsCollection)

		question := &models.Question{
			UserID:        "user-1",
			QuestionText:  "Describe a production incident you handled.",
			CandidateName: "Ada",
			Company:       "Acme",
			Position:      "SRE",
			InterviewType: models.InterviewTechnical,
		}

		require.NoError(t, repo.Create(ctx, question))
		assert.False(t, question.ID.IsZero())
		assert.NotZero(t, question.CreatedAt)

		found, err := repo.FindByID(ctx, question.ID)

		require.NoError(t, err)
		assert.Equal(t, question.QuestionText, found.QuestionText)
		assert.Equal(t, models.InterviewTechnical, found.InterviewType)
		assert.Equal(t, "user-1", found.UserID)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		tdb.ClearCollection(t, QuestionsCollection)

		found, err := repo.FindByID(ctx, primitive.NewObjectID())

		assert.Nil(t, found)
		assert.ErrorIs(t, err, apperrors.ErrQuestionNotFound)
	})
}
