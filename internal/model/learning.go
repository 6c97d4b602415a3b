package model

import "time"

// LearningProgress is a user-authored record of skill-learning milestones.
type LearningProgress struct {
	ID             string    `json:"id,omitempty"`
	UserID         string    `json:"userId"`
	PlanName       string    `json:"planName"`
	Description    string    `json:"description"`
	Routines       string    `json:"routines,omitempty"`
	Goal           string    `json:"goal,omitempty"`
	CompletedItems int       `json:"completedItems,omitempty"`
	TotalItems     int       `json:"totalItems,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitzero"`
	LastUpdated    time.Time `json:"lastUpdated,omitzero"`
}

// SkillShare is a media-centric post. MediaURLs and MediaTypes are parallel.
type SkillShare struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"userId"`
	MealDetails string    `json:"mealDetails"`
	MediaURLs   []string  `json:"mediaUrls"`
	MediaTypes  []string  `json:"mediaTypes"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

// Story is a short activity update shown in the stories tray.
// TimeDuration is in minutes.
type Story struct {
	ID           string    `json:"id,omitempty"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ExerciseType string    `json:"exerciseType,omitempty"`
	TimeDuration int       `json:"timeDuration,omitempty"`
	Intensity    string    `json:"intensity,omitempty"`
	Image        string    `json:"image,omitempty"`
	Timestamp    time.Time `json:"timestamp,omitzero"`
}
