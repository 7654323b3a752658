// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package database

import (
	"context"
	"reflect"

	"github.com/bytedance/sonic"
	"gorm.io/gorm/schema"
)

// SonicSerializer stores a field as JSON text encoded with sonic. Tag a field
// with `serializer:sonic` to use it.
type SonicSerializer struct{}

func init() {
	schema.RegisterSerializer("sonic", SonicSerializer{})
}

func (SonicSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue any) error {
	fieldValue := reflect.New(field.FieldType)
	var raw []byte
	switch v := dbValue.(type) {
	case nil:
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		b, err := sonic.Marshal(v)
		if err != nil {
			return err
		}
		raw = b
	}
	if len(raw) > 0 {
		if err := sonic.Unmarshal(raw, fieldValue.Interface()); err != nil {
			return err
		}
	}
	field.ReflectValueOf(ctx, dst).Set(fieldValue.Elem())
	return nil
}

// Value encodes nil as SQL NULL, or as an empty string on NOT NULL columns.
func (SonicSerializer) Value(_ context.Context, field *schema.Field, _ reflect.Value, fieldValue any) (any, error) {
	out, err := sonic.Marshal(fieldValue)
	if err != nil {
		return nil, err
	}
	if string(out) == "null" {
		if field.TagSettings["NOT NULL"] != "" {
			return "", nil
		}
		return nil, nil
	}
	return string(out), nil
}
