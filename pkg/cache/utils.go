package cache

import "fmt"

// GenerateKey joins a key namespace and an identifier, e.g. "vol:XAUUSD".
func GenerateKey(prefix string, id string) string {
	return prefix + ":" + id
}

// GenerateKeyWithParams joins a namespace with any number of parts.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key = fmt.Sprintf("%s:%v", key, param)
	}
	return key
}
