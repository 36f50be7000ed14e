package domain

// FieldType identifies the rendering technology of a form control and
// therefore the interaction protocol used to commit a value into it.
type FieldType string

const (
	FieldTypeText         FieldType = "text"
	FieldTypeTextarea     FieldType = "textarea"
	FieldTypeNativeSelect FieldType = "native-select"
	FieldTypeVirtual      FieldType = "single-virtual-select"
	FieldTypeVirtualMulti FieldType = "multi-virtual-select"
	FieldTypeCheckbox     FieldType = "checkbox"
	FieldTypeRadio        FieldType = "radio"
)

// SelectLike reports whether the type carries an option set that a
// target value must be validated against before committing.
func (t FieldType) SelectLike() bool {
	switch t {
	case FieldTypeNativeSelect, FieldTypeVirtual, FieldTypeVirtualMulti, FieldTypeRadio:
		return true
	}
	return false
}

// Bucket is the strict classification partition for collected fields.
// Every field lands in exactly one bucket and is processed by exactly
// one handler.
type Bucket string

const (
	BucketStandard  Bucket = "standard"
	BucketEducation Bucket = "education"
	BucketCustom    Bucket = "custom"
)
