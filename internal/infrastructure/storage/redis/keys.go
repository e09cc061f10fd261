package redis

import (
	"fmt"

	"isekai-server/internal/domain"
)

const keyPrefix = "isekai"

// accountKey - аккаунт по имени пользователя
func accountKey(username string) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, username)
}

// ownerKey - за каким аккаунтом закреплен id игрока
func ownerKey(id domain.PlayerID) string {
	return fmt.Sprintf("%s:owner:%s", keyPrefix, id)
}

// playerKey - сохранение игрока
func playerKey(id domain.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}
