package models

import (
	"database/sql/driver"
	"strconv"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSONText is a JSON document column. On sqlite it is declared TEXT because a
// JSON column has numeric affinity there and scalar documents such as 100
// come back as numbers.
type JSONText datatypes.JSON

// Value implements driver.Valuer.
func (j JSONText) Value() (driver.Value, error) {
	return datatypes.JSON(j).Value()
}

// Scan implements sql.Scanner. Numeric and boolean values are accepted for
// rows written to a column with numeric affinity.
func (j *JSONText) Scan(value interface{}) error {
	switch v := value.(type) {
	case int64:
		*j = JSONText(strconv.FormatInt(v, 10))
		return nil
	case float64:
		*j = JSONText(strconv.FormatFloat(v, 'g', -1, 64))
		return nil
	case bool:
		*j = JSONText(strconv.FormatBool(v))
		return nil
	}
	return (*datatypes.JSON)(j).Scan(value)
}

// MarshalJSON emits the document as is.
func (j JSONText) MarshalJSON() ([]byte, error) {
	return datatypes.JSON(j).MarshalJSON()
}

// UnmarshalJSON stores a copy of the raw document.
func (j *JSONText) UnmarshalJSON(data []byte) error {
	return (*datatypes.JSON)(j).UnmarshalJSON(data)
}

// GormDataType is the gorm common data type.
func (JSONText) GormDataType() string {
	return "json"
}

// GormDBDataType picks the column type per dialect.
func (JSONText) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "sqlite" {
		return "TEXT"
	}
	return datatypes.JSON(nil).GormDBDataType(db, field)
}
