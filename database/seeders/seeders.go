package seeders

import (
	"log"

	"studyplan_go/database"
	"studyplan_go/models"
	"studyplan_go/utils"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedTenants()
	SeedUsers()
	SeedStudents()
	SeedTimeSlots()
	SeedPlanGroups()

	log.Println("Database seeding completed successfully!")
}

// SeedTenants seeds the tenants table
func SeedTenants() {
	var count int64
	database.DB.Model(&models.Tenant{}).Count(&count)
	if count > 0 {
		log.Println("Tenants already seeded, skipping...")
		return
	}

	tenants := []models.Tenant{
		{
			BaseModel: models.BaseModel{ID: 1},
			Name:      "Main Study Center",
			Code:      "MAIN",
			Address:   "12 Teheran-ro, Gangnam-gu, Seoul",
			Phone:     "02-1234-5678",
			Active:    true,
		},
		{
			BaseModel: models.BaseModel{ID: 2},
			Name:      "Online Campus",
			Code:      "ONLINE",
			Address:   "Virtual Campus",
			Phone:     "02-1234-5679",
			Active:    true,
		},
	}

	for _, tenant := range tenants {
		if err := database.DB.Create(&tenant).Error; err != nil {
			log.Printf("Error seeding tenant %s: %v", tenant.Code, err)
		}
	}

	log.Println("Tenants seeded successfully")
}

// SeedUsers seeds the users table
func SeedUsers() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	// Hash the default password
	hashedPassword, _ := utils.HashPassword("password123")

	users := []models.User{
		{
			BaseModel: models.BaseModel{ID: 1},
			Username:  "owner",
			Password:  hashedPassword,
			Email:     "owner@studyplan.local",
			Phone:     "010-1234-5678",
			Role:      "owner",
			TenantID:  1,
			Status:    "active",
		},
		{
			BaseModel: models.BaseModel{ID: 2},
			Username:  "admin",
			Password:  hashedPassword,
			Email:     "admin@studyplan.local",
			Phone:     "010-1234-5679",
			Role:      "admin",
			TenantID:  1,
			Status:    "active",
		},
		{
			BaseModel: models.BaseModel{ID: 3},
			Username:  "teacher_kim",
			Password:  hashedPassword,
			Email:     "kim@studyplan.local",
			Phone:     "010-2345-6789",
			Role:      "teacher",
			TenantID:  1,
			Status:    "active",
		},
		{
			BaseModel: models.BaseModel{ID: 4},
			Username:  "student_minji",
			Password:  hashedPassword,
			Email:     "minji@example.com",
			Role:      "student",
			TenantID:  1,
			Status:    "active",
		},
		{
			BaseModel: models.BaseModel{ID: 5},
			Username:  "student_junho",
			Password:  hashedPassword,
			Email:     "junho@example.com",
			Role:      "student",
			TenantID:  1,
			Status:    "active",
		},
	}

	for _, user := range users {
		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("Error seeding user %s: %v", user.Username, err)
		}
	}

	log.Println("Users seeded successfully")
}

// SeedStudents seeds the students table
func SeedStudents() {
	var count int64
	database.DB.Model(&models.Student{}).Count(&count)
	if count > 0 {
		log.Println("Students already seeded, skipping...")
		return
	}

	students := []models.Student{
		{
			BaseModel:     models.BaseModel{ID: 1},
			UserID:        4,
			TenantID:      1,
			FirstName:     "Minji",
			LastName:      "Park",
			Nickname:      "Minji",
			GradeLevel:    "middle-2",
			School:        "Daechi Middle School",
			ParentName:    "Park Soo-jin",
			ParentPhone:   "010-3456-7890",
			LearningGoals: "Raise math grade before the fall exam period",
		},
		{
			BaseModel:     models.BaseModel{ID: 2},
			UserID:        5,
			TenantID:      1,
			FirstName:     "Junho",
			LastName:      "Lee",
			Nickname:      "Junho",
			GradeLevel:    "high-1",
			School:        "Gangnam High School",
			ParentName:    "Lee Hye-won",
			ParentPhone:   "010-4567-8901",
			LearningGoals: "Build a consistent English vocabulary routine",
		},
	}

	for _, student := range students {
		if err := database.DB.Create(&student).Error; err != nil {
			log.Printf("Error seeding student with UserID %d: %v", student.UserID, err)
		}
	}

	log.Println("Students seeded successfully")
}

// SeedTimeSlots seeds weekday planner templates for the sample students
func SeedTimeSlots() {
	var count int64
	database.DB.Model(&models.TimeSlot{}).Count(&count)
	if count > 0 {
		log.Println("Time slots already seeded, skipping...")
		return
	}

	var slots []models.TimeSlot
	// Monday through Friday share the same shape for both students.
	for weekday := 1; weekday <= 5; weekday++ {
		for _, studentID := range []uint{1, 2} {
			slots = append(slots,
				models.TimeSlot{
					TenantID:  1,
					StudentID: studentID,
					Weekday:   weekday,
					Kind:      models.SlotKindAcademy,
					StartTime: "08:30",
					EndTime:   "15:30",
					Label:     "School",
					Active:    true,
				},
				models.TimeSlot{
					TenantID:  1,
					StudentID: studentID,
					Weekday:   weekday,
					Kind:      models.SlotKindMeal,
					StartTime: "18:00",
					EndTime:   "19:00",
					Label:     "Dinner",
					Active:    true,
				},
				models.TimeSlot{
					TenantID:  1,
					StudentID: studentID,
					Weekday:   weekday,
					Kind:      models.SlotKindSelfStudy,
					StartTime: "19:00",
					EndTime:   "22:00",
					Label:     "Evening self-study",
					Active:    true,
				},
			)
		}
	}

	for _, slot := range slots {
		if err := database.DB.Create(&slot).Error; err != nil {
			log.Printf("Error seeding time slot for student %d: %v", slot.StudentID, err)
		}
	}

	log.Println("Time slots seeded successfully")
}

// SeedPlanGroups seeds sample content assignments
func SeedPlanGroups() {
	var count int64
	database.DB.Model(&models.PlanGroup{}).Count(&count)
	if count > 0 {
		log.Println("Plan groups already seeded, skipping...")
		return
	}

	groups := []models.PlanGroup{
		{
			BaseModel:   models.BaseModel{ID: 1},
			TenantID:    1,
			StudentID:   1,
			ContentType: "book",
			Title:       "Concept Math 2-2",
			Subject:     "math",
			UnitKind:    "pages",
			TotalStart:  1,
			TotalEnd:    248,
		},
		{
			BaseModel:   models.BaseModel{ID: 2},
			TenantID:    1,
			StudentID:   2,
			ContentType: "lecture",
			Title:       "Vocabulary Master Course",
			Subject:     "english",
			UnitKind:    "minutes",
			TotalStart:  0,
			TotalEnd:    1200,
		},
	}

	for _, group := range groups {
		if err := database.DB.Create(&group).Error; err != nil {
			log.Printf("Error seeding plan group %s: %v", group.Title, err)
		}
	}

	log.Println("Plan groups seeded successfully")
}
