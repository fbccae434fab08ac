package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"studyplan_go/models"

	"github.com/gofiber/fiber/v2"
	"github.com/line/line-bot-sdk-go/linebot"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LineWebhookHandler links parent LINE accounts to students so that
// carryover and plan notifications can be pushed to them.
type LineWebhookHandler struct {
	DB  *gorm.DB
	Bot *linebot.Client
}

func NewLineWebhookHandler(db *gorm.DB) *LineWebhookHandler {
	secret := os.Getenv("LINE_CHANNEL_SECRET")
	token := os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")

	if secret == "" || token == "" {
		logrus.Warn("LINE credentials missing: webhook disabled")
		return &LineWebhookHandler{DB: db, Bot: nil}
	}

	bot, err := linebot.New(secret, token)
	if err != nil {
		logrus.Fatalf("cannot create LINE bot client: %v", err)
	}
	return &LineWebhookHandler{DB: db, Bot: bot}
}

// Handle processes incoming webhook events. LINE expects a fast 200, so
// event handling runs in the background after signature validation.
func (h *LineWebhookHandler) Handle(c *fiber.Ctx) error {
	if h.Bot == nil {
		return c.SendStatus(fiber.StatusOK)
	}

	signature := c.Get("X-Line-Signature")
	if signature == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	if !validateSignature(os.Getenv("LINE_CHANNEL_SECRET"), c.Body(), signature) {
		logrus.Warn("LINE webhook signature mismatch")
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	go h.processEvents(c.Body())

	return c.SendStatus(fiber.StatusOK)
}

func (h *LineWebhookHandler) processEvents(body []byte) {
	var webhook struct {
		Events []*linebot.Event `json:"events"`
	}
	if err := json.Unmarshal(body, &webhook); err != nil {
		logrus.WithError(err).Error("failed to parse LINE webhook payload")
		return
	}

	for _, event := range webhook.Events {
		switch event.Type {
		case linebot.EventTypeFollow:
			logrus.WithField("line_user_id", event.Source.UserID).Info("LINE follow event")
			h.reply(event.ReplyToken,
				"Welcome! Send \"link <student code>\" to receive study plan updates for your child.")

		case linebot.EventTypeUnfollow:
			h.unlinkParent(event.Source.UserID)

		case linebot.EventTypeMessage:
			text, ok := event.Message.(*linebot.TextMessage)
			if !ok {
				continue
			}
			h.handleTextMessage(event, strings.TrimSpace(text.Text))
		}
	}
}

// handleTextMessage understands one command: "link <student id>".
func (h *LineWebhookHandler) handleTextMessage(event *linebot.Event, text string) {
	fields := strings.Fields(text)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "link") {
		return
	}

	studentID, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		h.reply(event.ReplyToken, "Student code should be a number, e.g. \"link 42\".")
		return
	}

	var student models.Student
	if err := h.DB.First(&student, uint(studentID)).Error; err != nil {
		h.reply(event.ReplyToken, "No student found for that code. Please check with your tutor.")
		return
	}

	lineUserID := event.Source.UserID
	if err := h.DB.Model(&student).Update("parent_line_id", lineUserID).Error; err != nil {
		logrus.WithError(err).WithField("student_id", student.ID).Error("failed to link parent LINE account")
		h.reply(event.ReplyToken, "Something went wrong, please try again later.")
		return
	}

	logrus.WithFields(logrus.Fields{
		"student_id":   student.ID,
		"line_user_id": lineUserID,
	}).Info("linked parent LINE account")
	h.reply(event.ReplyToken,
		fmt.Sprintf("Linked! You will now receive plan updates for %s %s.", student.FirstName, student.LastName))
}

func (h *LineWebhookHandler) unlinkParent(lineUserID string) {
	if lineUserID == "" {
		return
	}
	result := h.DB.Model(&models.Student{}).
		Where("parent_line_id = ?", lineUserID).
		Update("parent_line_id", "")
	if result.Error != nil {
		logrus.WithError(result.Error).Error("failed to unlink parent LINE account")
		return
	}
	if result.RowsAffected > 0 {
		logrus.WithField("line_user_id", lineUserID).Info("unlinked parent LINE account")
	}
}

func (h *LineWebhookHandler) reply(replyToken, message string) {
	if replyToken == "" {
		return
	}
	if _, err := h.Bot.ReplyMessage(replyToken, linebot.NewTextMessage(message)).Do(); err != nil {
		logrus.WithError(err).Error("failed to send LINE reply")
	}
}

// validateSignature checks the X-Line-Signature HMAC over the raw body.
func validateSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
