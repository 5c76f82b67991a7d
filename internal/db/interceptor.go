package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Interceptor receives callbacks around persistence operations. Calling
// tx.AddError from a callback aborts the operation.
type Interceptor interface {
	// OnSave runs before a row is inserted or updated.
	OnSave(tx *gorm.DB)
	// OnDelete runs before a row is deleted.
	OnDelete(tx *gorm.DB)
	// OnLoad runs after a query has loaded rows.
	OnLoad(tx *gorm.DB)
}

// EmptyInterceptor does nothing. Embed it to implement only some callbacks.
type EmptyInterceptor struct{}

func (EmptyInterceptor) OnSave(*gorm.DB)   {}
func (EmptyInterceptor) OnDelete(*gorm.DB) {}
func (EmptyInterceptor) OnLoad(*gorm.DB)   {}

const interceptorPluginName = "ormtestkit:interceptor"

// interceptorPlugin installs an Interceptor as gorm callbacks.
type interceptorPlugin struct {
	interceptor Interceptor
}

func (p *interceptorPlugin) Name() string {
	return interceptorPluginName
}

func (p *interceptorPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []struct {
		name     string
		register func(string, func(*gorm.DB)) error
	}{
		{"on_create", cb.Create().Before("gorm:create").Register},
		{"on_update", cb.Update().Before("gorm:update").Register},
		{"on_delete", cb.Delete().Before("gorm:delete").Register},
		{"on_load", cb.Query().After("gorm:query").Register},
	}

	handlers := map[string]func(*gorm.DB){
		"on_create": p.interceptor.OnSave,
		"on_update": p.interceptor.OnSave,
		"on_delete": p.interceptor.OnDelete,
		"on_load":   p.onLoad,
	}

	for _, r := range registrations {
		if err := r.register(interceptorPluginName+":"+r.name, handlers[r.name]); err != nil {
			return fmt.Errorf("failed to register %s callback: %w", r.name, err)
		}
	}
	return nil
}

// onLoad skips failed queries, including record-not-found.
func (p *interceptorPlugin) onLoad(tx *gorm.DB) {
	if tx.Error != nil {
		return
	}
	p.interceptor.OnLoad(tx)
}
