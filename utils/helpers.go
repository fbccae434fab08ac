package utils

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateRandomString generates a random string of specified length
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// IsValidRole checks if a role is valid
func IsValidRole(role string) bool {
	validRoles := []string{"owner", "admin", "teacher", "student"}
	for _, validRole := range validRoles {
		if role == validRole {
			return true
		}
	}
	return false
}

// IsValidContainer checks if a plan container type is valid
func IsValidContainer(container string) bool {
	validContainers := []string{"daily", "weekly", "unfinished"}
	for _, validContainer := range validContainers {
		if container == validContainer {
			return true
		}
	}
	return false
}

// IsValidPlanStatus checks if a plan status is valid
func IsValidPlanStatus(status string) bool {
	validStatuses := []string{"pending", "in_progress", "completed", "skipped", "cancelled"}
	for _, validStatus := range validStatuses {
		if status == validStatus {
			return true
		}
	}
	return false
}

// IsValidSlotKind checks if a time slot kind is valid
func IsValidSlotKind(kind string) bool {
	validKinds := []string{"study", "self_study", "meal", "sleep", "academy", "travel", "other"}
	for _, validKind := range validKinds {
		if kind == validKind {
			return true
		}
	}
	return false
}

// IsValidBlockType checks if a non-study block type is valid
func IsValidBlockType(blockType string) bool {
	validTypes := []string{"meal", "sleep", "academy", "travel", "other"}
	for _, validType := range validTypes {
		if blockType == validType {
			return true
		}
	}
	return false
}
