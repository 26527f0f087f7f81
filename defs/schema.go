package defs

import (
	"errors"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// Schema is the CUE definition every document must satisfy.
const Schema = `
#Ident:      =~"^[A-Za-z_][A-Za-z0-9_]*$"
#ClassName:  =~"^(::)?[A-Za-z_][A-Za-z0-9_]*(::[A-Za-z_][A-Za-z0-9_]*)*$"
#OptionName: =~"^-[A-Za-z0-9_][A-Za-z0-9_-]*$"
#Protection: "public" | "protected" | "private"
#Scalar:     string | number | bool
#Kind:       "class" | "type" | "widget" | "widgetadaptor" | "extendedclass"

#Arg:  #Ident | {name: #Ident, default?: #Scalar}
#Args: string | [...#Arg]

#Variable: {
	name:        #Ident
	protection?: #Protection
	common?:     bool
	default?:    #Scalar
	config?:     string
}

#Method: {
	name:        #Ident & !="constructor" & !="destructor"
	protection?: #Protection
	proc?:       bool
	args?:       #Args
	body?:       string
}

#Option: {
	name:       #OptionName
	default?:   #Scalar
	readonly?:  bool
	cget?:      #Ident
	configure?: #Ident
	validate?:  #Ident
}

#Component: {
	name:        #Ident
	protection?: #Protection
}

#Delegate: {
	method:  "*" | #Ident
	to:      #Ident
	as?:     string
	using?:  string
	except?: [...#Ident]
} | {
	option:  "*" | #OptionName
	to:      #Ident
	as?:     #OptionName
	except?: [...#OptionName]
}

#Class: {
	name:     #ClassName
	kind?:    #Kind
	inherit?: [...#ClassName]
	variables?: [...#Variable]
	components?: [...#Component]
	options?: [...#Option]
	methods?: [...#Method]
	constructor?: {
		args?: #Args
		init?: string
		body?: string
	}
	destructor?: string
	delegates?: [...#Delegate]
}

#File: {
	classes: [...#Class]
}
`

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	fileDef    cue.Value
	schemaErr  error

	// cue.Context is not safe for concurrent use.
	validateMu sync.Mutex
)

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(Schema, cue.Filename("incr-defs.cue"))
		if err := v.Err(); err != nil {
			schemaErr = err
			return
		}
		fileDef = v.LookupPath(cue.ParsePath("#File"))
		schemaErr = fileDef.Err()
	})
	return schemaCtx, fileDef, schemaErr
}

// Validate checks a decoded YAML document against Schema.
func Validate(doc any) error {
	validateMu.Lock()
	defer validateMu.Unlock()
	ctx, def, err := loadSchema()
	if err != nil {
		return err
	}
	v := def.Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return errors.New(cueerrors.Details(err, nil))
	}
	return nil
}
