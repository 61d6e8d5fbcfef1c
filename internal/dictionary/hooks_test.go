package dictionary

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeHooks(t *testing.T) {
	d := newTestDictionary()
	require.NoError(t, d.BindEntity(bookType))

	hooks := d.FieldTriggers(bookType, OperationCreate, PhasePreCommit, ClassNoField)
	require.Len(t, hooks, 1)
	audit, ok := hooks[0].(*auditHook)
	require.True(t, ok)
	assert.NotNil(t, audit.Clock)

	require.NoError(t, audit.Execute(context.Background(), OperationCreate, PhasePreCommit, &Book{}, nil))
	assert.Equal(t, 1, audit.calls)

	// Once-per-request hooks are not class triggers
	assert.Empty(t, d.Triggers(bookType, OperationCreate, PhasePreCommit))
}

func TestPerFieldTypeHook(t *testing.T) {
	type Audited struct {
		Model `elide:"include;name:audited;hook:update:preflush:audit:perField"`
		ID    int64 `elide:"id"`
	}

	d := newTestDictionary()
	audited := reflect.TypeOf(Audited{})
	require.NoError(t, d.BindEntity(audited))

	assert.Len(t, d.Triggers(audited, OperationUpdate, PhasePreFlush), 1)
	assert.Empty(t, d.FieldTriggers(audited, OperationUpdate, PhasePreFlush, ClassNoField))
}

func TestMemberHook(t *testing.T) {
	type Tracked struct {
		Model  `elide:"include;name:tracked"`
		ID     int64  `elide:"id"`
		Status string `json:"status" elide:"hook:update:postcommit:audit"`
	}

	d := newTestDictionary()
	tracked := reflect.TypeOf(Tracked{})
	require.NoError(t, d.BindEntity(tracked))

	hooks := d.FieldTriggers(tracked, OperationUpdate, PhasePostCommit, "status")
	require.Len(t, hooks, 1)
	assert.IsType(t, &auditHook{}, hooks[0])
	assert.Empty(t, d.FieldTriggers(tracked, OperationUpdate, PhasePreCommit, "status"))
}

func TestMethodHooks(t *testing.T) {
	d := newTestDictionary()
	require.NoError(t, d.BindEntity(bookType))
	ctx := context.Background()

	t.Run("field", func(t *testing.T) {
		hooks := d.FieldTriggers(bookType, OperationUpdate, PhasePreCommit, "title")
		require.Len(t, hooks, 1)

		book := &Book{}
		changes := &ChangeSpec{Model: book, FieldName: "title", Original: "old", Modified: "new"}
		require.NoError(t, hooks[0].Execute(ctx, OperationUpdate, PhasePreCommit, book, changes))
		assert.Equal(t, "title:new", book.Scratch)
	})

	t.Run("every field", func(t *testing.T) {
		hooks := d.Triggers(bookType, OperationUpdate, PhasePostCommit)
		require.Len(t, hooks, 1)

		book := &Book{}
		require.NoError(t, hooks[0].Execute(ctx, OperationUpdate, PhasePostCommit, book, nil))
		assert.Equal(t, "any", book.Scratch)
	})

	t.Run("once per request", func(t *testing.T) {
		hooks := d.FieldTriggers(bookType, OperationCreate, PhasePreSecurity, ClassNoField)
		require.Len(t, hooks, 1)

		book := &Book{}
		require.NoError(t, hooks[0].Execute(ctx, OperationCreate, PhasePreSecurity, book, nil))
		assert.Equal(t, "created", book.Scratch)
	})

	t.Run("missing method", func(t *testing.T) {
		hook := methodHook("OnNothing")
		assert.ErrorIs(t, hook.Execute(ctx, OperationCreate, PhasePreSecurity, &Book{}, nil), ErrIllegalArgument)
	})
}

func TestBindTrigger(t *testing.T) {
	d := newTestDictionary()
	calls := 0
	hook := HookFunc(func(context.Context, Operation, TransactionPhase, any, *ChangeSpec) error {
		calls++
		return nil
	})

	t.Run("binds the type on demand", func(t *testing.T) {
		require.NoError(t, d.BindTrigger(authorType, "name", OperationUpdate, PhasePreFlush, hook))
		assert.True(t, d.HasBinding(authorType))

		hooks := d.FieldTriggers(authorType, OperationUpdate, PhasePreFlush, "name")
		require.Len(t, hooks, 1)
		require.NoError(t, hooks[0].Execute(context.Background(), OperationUpdate, PhasePreFlush, &Author{}, nil))
		assert.Equal(t, 1, calls)
	})

	t.Run("class trigger", func(t *testing.T) {
		audit := &auditHook{}
		require.NoError(t, d.BindClassTrigger(authorType, OperationDelete, PhasePreCommit, audit, true))
		require.NoError(t, d.BindClassTrigger(authorType, OperationDelete, PhasePreCommit, audit, true))
		assert.Len(t, d.Triggers(authorType, OperationDelete, PhasePreCommit), 1)

		require.NoError(t, d.BindClassTrigger(authorType, OperationDelete, PhasePostCommit, audit, false))
		assert.Empty(t, d.Triggers(authorType, OperationDelete, PhasePostCommit))
		assert.Len(t, d.FieldTriggers(authorType, OperationDelete, PhasePostCommit, ClassNoField), 1)
	})

	t.Run("non entity", func(t *testing.T) {
		err := d.BindTrigger(reflect.TypeOf(NotAnEntity{}), "name", OperationUpdate, PhasePreFlush, hook)
		assert.ErrorIs(t, err, ErrUnboundEntity)
	})

	t.Run("registered after construction", func(t *testing.T) {
		type Late struct {
			Model `elide:"include;name:late;hook:read:presecurity:late"`
			ID    int64 `elide:"id"`
		}
		late := reflect.TypeOf(Late{})
		assert.ErrorIs(t, d.BindEntity(late), ErrUnknownHook)

		d.RegisterHook("late", &auditHook{})
		require.NoError(t, d.BindEntity(late))
		assert.Len(t, d.FieldTriggers(late, OperationRead, PhasePreSecurity, ClassNoField), 1)
	})
}

func TestParseHookBinding(t *testing.T) {
	tests := []struct {
		raw     string
		want    hookBinding
		wantErr bool
	}{
		{raw: "create:precommit:audit", want: hookBinding{op: OperationCreate, phase: PhasePreCommit, hook: "audit", oncePerCall: true}},
		{raw: "UPDATE:PostCommit:audit:perField", want: hookBinding{op: OperationUpdate, phase: PhasePostCommit, hook: "audit"}},
		{raw: "create:precommit", wantErr: true},
		{raw: "create:precommit:audit:sometimes", wantErr: true},
		{raw: "upsert:precommit:audit", wantErr: true},
		{raw: "create:whenever:audit", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseHookBinding(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIllegalArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLegacyHook(t *testing.T) {
	got, err := parseLegacyHook("update:precommit:title")
	require.NoError(t, err)
	assert.Equal(t, legacyHook{op: OperationUpdate, phase: PhasePreCommit, field: "title"}, got)

	got, err = parseLegacyHook("delete:postcommit")
	require.NoError(t, err)
	assert.Equal(t, ClassNoField, got.field)

	_, err = parseLegacyHook("delete")
	assert.ErrorIs(t, err, ErrIllegalArgument)
}
