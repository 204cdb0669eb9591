package env

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DynamicFunc produces the literal string value of a dynamic variable
// each time it is referenced.
type DynamicFunc func() string

func defaultDynamicFuncs() map[string]DynamicFunc {
	return map[string]DynamicFunc{
		"uuid":      dynamicUUID,
		"timestamp": dynamicTimestamp,
		"randomInt": dynamicRandomInt,
	}
}

func dynamicUUID() string {
	return uuid.New().String()
}

func dynamicTimestamp() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}

func dynamicRandomInt() string {
	return strconv.Itoa(rand.Intn(1000))
}
