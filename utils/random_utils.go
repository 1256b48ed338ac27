package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// RandomInt32 生成一个安全的随机32位整数
func RandomInt32() int32 {
	var num int32
	err := binary.Read(rand.Reader, binary.BigEndian, &num)
	if err != nil {
		panic("generate random int32 failed")
	}

	return num
}

// GenerateIncidentNumber 生成急救派遣用的事件编号，格式 NF-<年份>-<六位数字>
func GenerateIncidentNumber() string {
	n := RandomInt32() % 1000000
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("NF-%d-%06d", time.Now().Year(), n)
}
