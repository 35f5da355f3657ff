package service

import (
	"context"
	"testing"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactSubmitStoresAndForwards(t *testing.T) {
	db := setupServiceTestDB(t)
	email, recorder := newSendGridEmailService(t)
	svc := NewContactService(repository.NewContactRepository(db), nil, email, testShop)
	svc.spawn = func(fn func()) { fn() }

	message, err := svc.Submit(context.Background(), ContactInput{
		Name:    " Nadia ",
		Email:   "nadia@example.com",
		Subject: "Mariage",
		Message: "Bonjour, je souhaite une arche pour le 12 juillet.",
	})
	require.NoError(t, err)
	assert.NotZero(t, message.ID)
	assert.Equal(t, "Nadia", message.Name)

	var stored models.ContactMessage
	require.NoError(t, db.First(&stored, message.ID).Error)
	assert.Equal(t, "Mariage", stored.Subject)

	require.Equal(t, 1, recorder.count())
	payload := recorder.payloads[0]
	assert.Equal(t, "Nouveau message de Nadia - Mariage", payload["subject"])
	contents, _ := payload["content"].([]interface{})
	require.Len(t, contents, 1)
	body := contents[0].(map[string]interface{})["value"].(string)
	assert.Contains(t, body, "Téléphone : Non fourni")
}

func TestContactSubmitValidation(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewContactService(repository.NewContactRepository(db), nil, NewEmailService(config.EmailConfig{}), testShop)

	tests := []struct {
		name  string
		input ContactInput
		want  error
	}{
		{name: "missing_message", input: ContactInput{Name: "A", Email: "a@b.fr", Subject: "S"}, want: ErrContactFieldsRequired},
		{name: "blank_name", input: ContactInput{Name: "  ", Email: "a@b.fr", Subject: "S", Message: "M"}, want: ErrContactFieldsRequired},
		{name: "bad_email", input: ContactInput{Name: "A", Email: "a@b", Subject: "S", Message: "M"}, want: ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.ContactMessage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestContactSubmitRequiresCaptchaWhenEnabled(t *testing.T) {
	db := setupServiceTestDB(t)
	captcha := NewCaptchaService(config.CaptchaConfig{
		Provider: constants.CaptchaProviderImage,
		Scenes:   config.CaptchaSceneConfig{Contact: true},
	})
	svc := NewContactService(repository.NewContactRepository(db), captcha, NewEmailService(config.EmailConfig{}), testShop)

	input := ContactInput{Name: "A", Email: "a@b.fr", Subject: "S", Message: "M"}
	_, err := svc.Submit(context.Background(), input)
	assert.ErrorIs(t, err, ErrCaptchaRequired)

	input.Captcha = CaptchaVerifyPayload{CaptchaID: "unknown", CaptchaCode: "abcd"}
	_, err = svc.Submit(context.Background(), input)
	assert.ErrorIs(t, err, ErrCaptchaInvalid)
}
