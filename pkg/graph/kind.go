package graph

import (
	"fmt"
	"strings"
)

// Kind classifies a declaration or the target of a reference.
// Values are the raw kind names emitted by the indexer.
type Kind string

const (
	KindAssociatedType          Kind = "associatedtype"
	KindClass                   Kind = "class"
	KindEnum                    Kind = "enum"
	KindEnumElement             Kind = "enumelement"
	KindExtension               Kind = "extension"
	KindExtensionClass          Kind = "extension.class"
	KindExtensionEnum           Kind = "extension.enum"
	KindExtensionProtocol       Kind = "extension.protocol"
	KindExtensionStruct         Kind = "extension.struct"
	KindAccessorAddress         Kind = "function.accessor.address"
	KindAccessorDidSet          Kind = "function.accessor.didset"
	KindAccessorGetter          Kind = "function.accessor.getter"
	KindAccessorInit            Kind = "function.accessor.init"
	KindAccessorModify          Kind = "function.accessor.modify"
	KindAccessorMutableAddress  Kind = "function.accessor.mutableaddress"
	KindAccessorRead            Kind = "function.accessor.read"
	KindAccessorSetter          Kind = "function.accessor.setter"
	KindAccessorWillSet         Kind = "function.accessor.willset"
	KindFunctionConstructor     Kind = "function.constructor"
	KindFunctionDestructor      Kind = "function.destructor"
	KindFunctionFree            Kind = "function.free"
	KindFunctionMethodClass     Kind = "function.method.class"
	KindFunctionMethodInstance  Kind = "function.method.instance"
	KindFunctionMethodStatic    Kind = "function.method.static"
	KindFunctionOperator        Kind = "function.operator"
	KindFunctionOperatorInfix   Kind = "function.operator.infix"
	KindFunctionOperatorPostfix Kind = "function.operator.postfix"
	KindFunctionOperatorPrefix  Kind = "function.operator.prefix"
	KindFunctionSubscript       Kind = "function.subscript"
	KindGenericTypeParam        Kind = "generic_type_param"
	KindMacro                   Kind = "macro"
	KindModule                  Kind = "module"
	KindPrecedenceGroup         Kind = "precedencegroup"
	KindProtocol                Kind = "protocol"
	KindStruct                  Kind = "struct"
	KindTypeAlias               Kind = "typealias"
	KindVarClass                Kind = "var.class"
	KindVarGlobal               Kind = "var.global"
	KindVarInstance             Kind = "var.instance"
	KindVarLocal                Kind = "var.local"
	KindVarParameter            Kind = "var.parameter"
	KindVarStatic               Kind = "var.static"
)

var allKinds = []Kind{
	KindAssociatedType, KindClass, KindEnum, KindEnumElement,
	KindExtension, KindExtensionClass, KindExtensionEnum, KindExtensionProtocol, KindExtensionStruct,
	KindAccessorAddress, KindAccessorDidSet, KindAccessorGetter, KindAccessorInit, KindAccessorModify,
	KindAccessorMutableAddress, KindAccessorRead, KindAccessorSetter, KindAccessorWillSet,
	KindFunctionConstructor, KindFunctionDestructor, KindFunctionFree,
	KindFunctionMethodClass, KindFunctionMethodInstance, KindFunctionMethodStatic,
	KindFunctionOperator, KindFunctionOperatorInfix, KindFunctionOperatorPostfix, KindFunctionOperatorPrefix,
	KindFunctionSubscript, KindGenericTypeParam, KindMacro, KindModule, KindPrecedenceGroup,
	KindProtocol, KindStruct, KindTypeAlias,
	KindVarClass, KindVarGlobal, KindVarInstance, KindVarLocal, KindVarParameter, KindVarStatic,
}

var knownKinds = func() map[Kind]bool {
	m := make(map[Kind]bool, len(allKinds))
	for _, k := range allKinds {
		m[k] = true
	}
	return m
}()

// ParseKind converts a raw kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !knownKinds[k] {
		return "", fmt.Errorf("unknown declaration kind %q", s)
	}
	return k, nil
}

// AllKinds returns every known kind.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// String returns the raw kind name.
func (k Kind) String() string {
	return string(k)
}

// IsAccessor reports whether the kind is a property accessor.
func (k Kind) IsAccessor() bool {
	return strings.HasPrefix(string(k), "function.accessor.")
}

// IsSetterLike reports whether the accessor kind runs when its property is assigned.
func (k Kind) IsSetterLike() bool {
	switch k {
	case KindAccessorSetter, KindAccessorWillSet, KindAccessorDidSet,
		KindAccessorMutableAddress, KindAccessorModify, KindAccessorInit:
		return true
	}
	return false
}

// IsVariable reports whether the kind is a property or variable.
func (k Kind) IsVariable() bool {
	return strings.HasPrefix(string(k), "var.")
}

// IsFunction reports whether the kind is any function, accessors included.
func (k Kind) IsFunction() bool {
	return strings.HasPrefix(string(k), "function.")
}

// IsExtension reports whether the kind is an extension.
func (k Kind) IsExtension() bool {
	return k == KindExtension || strings.HasPrefix(string(k), "extension.")
}

// IsProtocol reports whether the kind is a protocol.
func (k Kind) IsProtocol() bool {
	return k == KindProtocol
}

// DisplayName returns the human-readable kind used in descriptions.
// Kinds without one return "".
func (k Kind) DisplayName() string {
	switch {
	case k == KindModule:
		return "module"
	case k == KindClass:
		return "class"
	case k == KindStruct:
		return "struct"
	case k == KindEnum:
		return "enum"
	case k == KindEnumElement:
		return "enum case"
	case k == KindTypeAlias:
		return "typealias"
	case k == KindAssociatedType:
		return "associatedtype"
	case k == KindProtocol:
		return "protocol"
	case k == KindFunctionConstructor:
		return "initializer"
	case k == KindFunctionDestructor:
		return "deinitializer"
	case k == KindFunctionSubscript:
		return "subscript"
	case k == KindGenericTypeParam:
		return "generic type parameter"
	case k == KindPrecedenceGroup:
		return "precedence group"
	case k == KindMacro:
		return "macro"
	case k == KindVarParameter:
		return "parameter"
	case k.IsExtension():
		return "extension"
	case k.IsAccessor():
		return "accessor"
	case k.IsFunction():
		return "function"
	case k.IsVariable():
		return "property"
	}
	return ""
}
