package model

import "time"

// Studio is a virtual studio owned by a host (GORM).
type Studio struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title     string    `gorm:"size:200;not null"`
	HostID    string    `gorm:"type:uuid;not null;index"`
	RoomID    string    `gorm:"size:16;not null;uniqueIndex"` // short shareable id
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Studio) TableName() string { return "studios" }

// RecordingSession is one recording take within a studio room (GORM).
// CombineRequested is the claim flag for the combination trigger: it
// transitions false -> true at most once per session, via conditional update.
type RecordingSession struct {
	ID                string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudioID          string    `gorm:"type:uuid;not null;index"`
	HostID            string    `gorm:"type:uuid;not null"`
	IsActive          bool      `gorm:"not null;default:true"`
	CombineRequested  bool      `gorm:"not null;default:false"`
	CombinedVideoPath *string   `gorm:"size:512"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`

	Recordings []Recording `gorm:"foreignKey:SessionID"`
}

func (RecordingSession) TableName() string { return "recording_sessions" }

// Recording is one participant's media contribution to a session (GORM).
// SessionID is immutable once set; UploadStatus only moves pending -> complete.
type Recording struct {
	ID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudioID     string     `gorm:"type:uuid;not null;index"`
	UserID       string     `gorm:"type:uuid;not null;index"`
	SessionID    string     `gorm:"type:uuid;not null;index"`
	FileKey      string     `gorm:"size:255;not null;uniqueIndex"`
	MediaType    string     `gorm:"size:20;not null;default:video"`
	StartedAt    time.Time  `gorm:"column:started_at"`
	EndedAt      *time.Time `gorm:"column:ended_at"`
	IsActive     bool       `gorm:"not null;default:false"`
	UploadStatus string     `gorm:"size:20;not null;default:pending"` // pending, complete
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

func (Recording) TableName() string { return "recordings" }
