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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

type sonicRow struct {
	ID     uint64
	Names  []string       `gorm:"type:text;serializer:sonic"`
	Detail map[string]any `gorm:"type:text;not null;serializer:sonic"`
}

func TestSonicSerializer(t *testing.T) {
	s, err := schema.Parse(&sonicRow{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	names := s.LookUpField("Names")
	detail := s.LookUpField("Detail")
	require.NotNil(t, names)
	require.NotNil(t, detail)

	ctx := context.Background()
	var ser SonicSerializer

	v, err := ser.Value(ctx, names, reflect.Value{}, []string{"mentor", "speaker"})
	require.NoError(t, err)
	assert.Equal(t, `["mentor","speaker"]`, v)

	v, err = ser.Value(ctx, names, reflect.Value{}, []string(nil))
	require.NoError(t, err)
	assert.Nil(t, v)
	v, err = ser.Value(ctx, detail, reflect.Value{}, map[string]any(nil))
	require.NoError(t, err)
	assert.Equal(t, "", v)

	var row sonicRow
	dst := reflect.ValueOf(&row).Elem()
	require.NoError(t, ser.Scan(ctx, names, dst, []byte(`["a","b"]`)))
	assert.Equal(t, []string{"a", "b"}, row.Names)
	require.NoError(t, ser.Scan(ctx, detail, dst, `{"roleId":"r1"}`))
	assert.Equal(t, "r1", row.Detail["roleId"])
	require.NoError(t, ser.Scan(ctx, names, dst, nil))
	assert.Nil(t, row.Names)

	assert.Error(t, ser.Scan(ctx, names, dst, "not json"))
}
