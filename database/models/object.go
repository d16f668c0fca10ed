package models

import "gorm.io/gorm"

// StoredObject 已存储的二进制对象元数据
// 标识符在创建时分配，之后不可变，是对象对外的唯一引用。
type StoredObject struct {
	gorm.Model
	Identifier  string `gorm:"uniqueIndex:idx_objects_identifier;not null"`
	StorageName string `gorm:"uniqueIndex:idx_objects_storage_name;not null"`
	ContentType string `gorm:"not null"`
	SizeBytes   int64  `gorm:"not null"`
	ChunkSize   int    `gorm:"not null"`
	ChunkCount  int    `gorm:"not null"`
}

// ObjectChunk 对象的定长二进制分片
// (ObjectID, Seq) 唯一，重组只依赖 Seq 顺序。
type ObjectChunk struct {
	ID       uint   `gorm:"primaryKey"`
	ObjectID uint   `gorm:"uniqueIndex:idx_chunks_object_seq,priority:1;not null"`
	Seq      int    `gorm:"uniqueIndex:idx_chunks_object_seq,priority:2;not null"`
	Data     []byte `gorm:"not null"`
}
