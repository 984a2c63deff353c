package model

// File represents one stored blob (candidate document, employee photo) with
// its original extension. Content lives either inline or, when cloud storage
// is configured, in the bucket object named by StorageObjectName.
type File struct {
	ID                int `gorm:"primaryKey"`
	Content           []byte
	Extension         string
	StorageObjectName *string
}
