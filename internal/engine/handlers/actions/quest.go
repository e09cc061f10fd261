package actions

import (
	"github.com/sirupsen/logrus"

	"isekai-server/internal/domain"
	"isekai-server/internal/engine/handlers"
	"isekai-server/internal/engine/view"
	"isekai-server/internal/world"
	"isekai-server/pkg/api"
	"isekai-server/pkg/logger"
)

// advanceQuest засчитывает убийство в активный квест. При завершении выдает
// награду, шлет QUEST_COMPLETE и сразу назначает следующий квест цепочки.
// Возвращает снимок игрока после награды (ok=false, если награды не было).
func advanceQuest(ctx handlers.Context, category domain.KillCategory) (domain.PlayerEntity, bool) {
	quests := ctx.Game.Quests()

	q, changed := quests.IncrementIfMatches(ctx.Actor, category)
	if !changed {
		return domain.PlayerEntity{}, false
	}
	ctx.Game.SendTo(ctx.Actor, api.QuestUpdateMessage{Type: api.MsgQuestUpdate, Quest: view.Quest(q)})

	if !quests.IsComplete(ctx.Actor) {
		return domain.PlayerEntity{}, false
	}

	done, nextID, ok := quests.Finalize(ctx.Actor)
	if !ok {
		return domain.PlayerEntity{}, false
	}

	var after domain.PlayerEntity
	err := ctx.Game.World().Update(func(tx *world.Tx) error {
		p, found := tx.Player(ctx.Actor)
		if !found {
			return world.ErrPlayerNotFound
		}
		ctx.Game.Progression().GrantXP(p, done.RewardXP)
		after = *p
		return nil
	})
	if err != nil {
		return domain.PlayerEntity{}, false
	}

	logger.Log.WithFields(logrus.Fields{
		"component": "quests",
		"player_id": ctx.Actor,
		"quest_id":  done.ID,
		"reward_xp": done.RewardXP,
		"next":      nextID,
	}).Info("Quest completed")

	ctx.Game.SendTo(ctx.Actor, api.QuestCompleteMessage{
		Type:  api.MsgQuestComplete,
		XP:    done.RewardXP,
		PData: view.Player(after),
	})

	if nextID != "" {
		if next, assigned := quests.Assign(ctx.Actor, nextID); assigned {
			ctx.Game.SendTo(ctx.Actor, api.QuestUpdateMessage{Type: api.MsgQuestUpdate, Quest: view.Quest(next)})
		}
	}
	return after, true
}
