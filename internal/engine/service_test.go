package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isekai-server/internal/domain"
	"isekai-server/internal/infrastructure/storage"
	"isekai-server/internal/infrastructure/storage/memory"
	"isekai-server/internal/world"
	"isekai-server/pkg/api"
	"isekai-server/pkg/logger"
	"isekai-server/pkg/terrain"
)

func TestMain(m *testing.M) {
	logger.InitWithOutput(io.Discard)
	os.Exit(m.Run())
}

func cityLikeRect() terrain.Rect {
	return terrain.Rect{X: 0, Y: 0, W: 100, H: 100}
}

func newTestService(t *testing.T) (*GameService, *memory.Store) {
	t.Helper()
	cfg := NewConfig()
	cfg.Seed = 7
	cfg.World.InitialHostiles = 0
	cfg.World.MaintainInterval = 0

	store := memory.New(storage.Hasher{Cost: 4})
	s, err := NewService(cfg, store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, store
}

func join(t *testing.T, s *GameService, raw string) (Binding, error) {
	t.Helper()
	msg, err := api.DecodeClientMessage([]byte(raw))
	require.NoError(t, err)
	return s.Join(context.Background(), msg, nil)
}

func mustJoin(t *testing.T, s *GameService, raw string) Binding {
	t.Helper()
	b, err := join(t, s, raw)
	require.NoError(t, err)
	return b
}

// expect читает канал, пропуская чужие типы, и раскладывает нужный в out
func expect(t *testing.T, ch <-chan []byte, msgType string, out any) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case data, ok := <-ch:
			require.True(t, ok, "channel closed while waiting for %s", msgType)
			var head struct {
				Type string `json:"type"`
			}
			require.NoError(t, json.Unmarshal(data, &head))
			if head.Type != msgType {
				continue
			}
			if out != nil {
				require.NoError(t, json.Unmarshal(data, out))
			}
			return
		case <-timeout:
			t.Fatalf("timeout waiting for %s", msgType)
		}
	}
}

func assertLoginFail(t *testing.T, err error, reason string) {
	t.Helper()
	var le *LoginError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, reason, le.Reason)
}

func placeSlime(t *testing.T, s *GameService, pos domain.Position, hp int) domain.HostileID {
	t.Helper()
	var id domain.HostileID
	require.NoError(t, s.World().Update(func(tx *world.Tx) error {
		id = tx.NewHostileID()
		h := domain.NewHostile(id, domain.HostileSlime, 1, pos)
		h.HP = hp
		tx.InsertHostile(h)
		return nil
	}))
	return id
}

func TestJoin_RegisterSendsInitFirst(t *testing.T) {
	s, _ := newTestService(t)

	b := mustJoin(t, s, `{"type":"REGISTER","username":"alice","password":"pw","class":"mage"}`)

	var init api.InitMessage
	data := <-b.Outbound
	require.NoError(t, json.Unmarshal(data, &init))
	assert.Equal(t, api.MsgInit, init.Type)
	assert.Equal(t, b.PlayerID.String(), init.ID)

	me, ok := init.State[init.ID]
	require.True(t, ok)
	assert.Equal(t, 1200.0, me.X)
	assert.Equal(t, 1200.0, me.Y)
	assert.Equal(t, "mage", me.Class)
	assert.Equal(t, 70, me.MaxHP)
	assert.Equal(t, 1, me.Level)

	require.NotNil(t, init.Quest)
	assert.Equal(t, domain.FirstQuestID, init.Quest.ID)
	assert.Contains(t, init.NPCs, domain.DefaultNPCs()[0].ID)
	assert.Equal(t, domain.DialogueIDs(), init.NPCs[domain.DefaultNPCs()[0].ID].Dialogues)
}

func TestJoin_AuthFailures(t *testing.T) {
	s, _ := newTestService(t)
	mustJoin(t, s, `{"type":"REGISTER","username":"alice","password":"pw"}`)

	_, err := join(t, s, `{"type":"REGISTER","username":"alice","password":"other"}`)
	assertLoginFail(t, err, api.ReasonUserExists)

	_, err = join(t, s, `{"type":"REGISTER","username":"bob"}`)
	assertLoginFail(t, err, api.ReasonMissingCredentials)

	_, err = join(t, s, `{"type":"LOGIN","password":"pw"}`)
	assertLoginFail(t, err, api.ReasonMissingCredentials)

	_, err = join(t, s, `{"type":"LOGIN","username":"alice","password":"wrong"}`)
	assertLoginFail(t, err, api.ReasonInvalidCredentials)

	_, err = join(t, s, `{"type":"MOVE","x":1,"y":1}`)
	assert.ErrorIs(t, err, ErrNotHandshake)

	players, _, _ := s.Counts()
	assert.Equal(t, 1, players, "failed handshakes must not leave entities behind")
}

func TestJoin_DuplicateLoginAndRelogin(t *testing.T) {
	s, store := newTestService(t)

	first := mustJoin(t, s, `{"type":"REGISTER","username":"alice","password":"pw","class":"rogue"}`)
	<-first.Outbound

	_, err := join(t, s, `{"type":"LOGIN","username":"alice","password":"pw"}`)
	assertLoginFail(t, err, api.ReasonAlreadyLoggedIn)

	// 250 опыта: уровень 1 -> 3, остаток 50
	require.NoError(t, s.World().Update(func(tx *world.Tx) error {
		p, _ := tx.Player(first.PlayerID)
		s.Progression().GrantXP(p, 250)
		return nil
	}))
	s.Disconnect(first.PlayerID)

	save, found, err := store.LoadPlayer(context.Background(), first.PlayerID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, save.Level)
	assert.Equal(t, 50, save.XP)

	second := mustJoin(t, s, `{"type":"LOGIN","username":"alice","password":"pw"}`)
	assert.Equal(t, first.PlayerID, second.PlayerID)

	var init api.InitMessage
	expect(t, second.Outbound, api.MsgInit, &init)
	me := init.State[init.ID]
	assert.Equal(t, "rogue", me.Class)
	assert.Equal(t, 3, me.Level)
	assert.Equal(t, 50, me.XP)
	assert.Equal(t, 85+2*domain.HPPerLevel, me.MaxHP)
}

func TestJoin_AnonymousIsNotPersisted(t *testing.T) {
	s, store := newTestService(t)

	b := mustJoin(t, s, `{}`)
	var init api.InitMessage
	expect(t, b.Outbound, api.MsgInit, &init)
	assert.Equal(t, "warrior", init.State[init.ID].Class)

	require.NoError(t, s.World().Update(func(tx *world.Tx) error {
		p, _ := tx.Player(b.PlayerID)
		s.Progression().GrantXP(p, 120)
		return nil
	}))
	s.Disconnect(b.PlayerID)

	_, found, err := store.LoadPlayer(context.Background(), b.PlayerID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJoinAndLeaveAreBroadcast(t *testing.T) {
	s, _ := newTestService(t)

	a := mustJoin(t, s, `{"type":"INIT","class":"ninja"}`)
	expect(t, a.Outbound, api.MsgInit, nil)

	b := mustJoin(t, s, `{"type":"INIT"}`)
	var init api.InitMessage
	expect(t, b.Outbound, api.MsgInit, &init)
	assert.Contains(t, init.State, a.PlayerID.String(), "snapshot includes players already online")

	var joined api.JoinMessage
	expect(t, a.Outbound, api.MsgJoin, &joined)
	assert.Equal(t, b.PlayerID.String(), joined.ID)

	s.Disconnect(b.PlayerID)
	s.Disconnect(b.PlayerID) // повторный вызов безопасен

	var left api.LeaveMessage
	expect(t, a.Outbound, api.MsgLeave, &left)
	assert.Equal(t, b.PlayerID.String(), left.ID)
	assert.False(t, s.World().HasPlayer(b.PlayerID))
	assert.False(t, s.Hub.HasSubscriber(b.PlayerID))

	_, ok := <-b.Outbound
	assert.False(t, ok, "outbound channel is closed on disconnect")
}

func TestHandleMessage_MoveChatAndGarbage(t *testing.T) {
	s, _ := newTestService(t)
	a := mustJoin(t, s, `{"type":"INIT"}`)
	b := mustJoin(t, s, `{"type":"INIT"}`)
	expect(t, a.Outbound, api.MsgJoin, nil)
	expect(t, b.Outbound, api.MsgInit, nil)

	s.HandleMessage(a.PlayerID, []byte(`not json`))
	s.HandleMessage(a.PlayerID, []byte(`{"type":"DANCE"}`))
	s.HandleMessage(a.PlayerID, []byte(`{"type":"MOVE","x":1}`))

	s.HandleMessage(a.PlayerID, []byte(`{"type":"MOVE","x":1500,"y":1200}`))
	var corr api.CorrectPositionMessage
	expect(t, a.Outbound, api.MsgCorrectPosition, &corr)
	assert.Equal(t, 1200.0, corr.X)

	s.HandleMessage(a.PlayerID, []byte(`{"type":"MOVE","x":1206,"y":1208}`))
	var upd api.UpdateMessage
	expect(t, b.Outbound, api.MsgUpdate, &upd)
	assert.Equal(t, a.PlayerID.String(), upd.ID)
	assert.Equal(t, 1206.0, upd.X)

	p, _ := s.World().Player(a.PlayerID)
	assert.Equal(t, domain.Position{X: 1206, Y: 1208}, p.Pos)

	s.HandleMessage(a.PlayerID, []byte(`{"type":"CHAT","text":"hello"}`))
	var chat api.ChatMessage
	expect(t, a.Outbound, api.MsgChat, &chat)
	assert.Equal(t, "hello", chat.Text)
	expect(t, b.Outbound, api.MsgChat, &chat)
	assert.Equal(t, a.PlayerID.String(), chat.ID)
}

func TestHandleMessage_LongChatIsVerbatim(t *testing.T) {
	s, _ := newTestService(t)
	a := mustJoin(t, s, `{"type":"INIT"}`)

	text := strings.Repeat("привет ", 300)
	raw, err := json.Marshal(api.ChatPayload{Text: text})
	require.NoError(t, err)
	s.HandleMessage(a.PlayerID, append([]byte(`{"type":"CHAT",`), raw[1:]...))

	var chat api.ChatMessage
	expect(t, a.Outbound, api.MsgChat, &chat)
	assert.Equal(t, text, chat.Text)
}

func TestHandleMessage_TalkNearGuildMaster(t *testing.T) {
	s, _ := newTestService(t)
	a := mustJoin(t, s, `{"type":"INIT"}`)

	s.HandleMessage(a.PlayerID, []byte(`{"type":"TALK_NPC"}`))
	var dlg api.DialogueMessage
	expect(t, a.Outbound, api.MsgDialogue, &dlg)
	assert.Equal(t, "intro", dlg.DialogueID)
	assert.Equal(t, "Guild Master", dlg.NPCName)
}

func TestHandleMessage_KillsCompleteQuestChain(t *testing.T) {
	s, _ := newTestService(t)
	a := mustJoin(t, s, `{"type":"REGISTER","username":"hero","password":"pw"}`)
	expect(t, a.Outbound, api.MsgInit, nil)

	near := domain.Position{X: 1230, Y: 1200}
	for i := 1; i <= 3; i++ {
		placeSlime(t, s, near, 1)
		s.HandleMessage(a.PlayerID, []byte(`{"type":"ATTACK"}`))

		var qu api.QuestUpdateMessage
		expect(t, a.Outbound, api.MsgQuestUpdate, &qu)
		assert.Equal(t, i, qu.Quest.Progress, fmt.Sprintf("kill %d", i))

		if i < 3 {
			var combat api.CombatMessage
			expect(t, a.Outbound, api.MsgCombat, &combat)
			assert.Equal(t, "kill", combat.Result.Result)
			assert.Equal(t, "SLIME_KILL", combat.Result.NotifyType)
		}
	}

	var done api.QuestCompleteMessage
	expect(t, a.Outbound, api.MsgQuestComplete, &done)
	assert.Equal(t, 100, done.XP)
	// 3*50 + 100 = 250 опыта: уровень 3, остаток 50
	assert.Equal(t, 3, done.PData.Level)
	assert.Equal(t, 50, done.PData.XP)

	var next api.QuestUpdateMessage
	expect(t, a.Outbound, api.MsgQuestUpdate, &next)
	assert.Equal(t, "q_scout_goblins", next.Quest.ID)
	assert.Equal(t, 0, next.Quest.Progress)

	var combat api.CombatMessage
	expect(t, a.Outbound, api.MsgCombat, &combat)
	assert.Equal(t, 3, combat.PData.Level, "combat snapshot is taken after the quest reward")

	// Мастер гильдии переходит к диалогу второго квеста
	s.HandleMessage(a.PlayerID, []byte(`{"type":"TALK_NPC"}`))
	var dlg api.DialogueMessage
	expect(t, a.Outbound, api.MsgDialogue, &dlg)
	assert.Equal(t, "quest2_start", dlg.DialogueID)
}

func TestRegister_SkipsIDOfOfflineAccount(t *testing.T) {
	s, store := newTestService(t)

	// Генератор сначала дважды отдает id первого аккаунта
	ids := []string{"aaaaaaaa", "aaaaaaaa", "aaaaaaaa", "bbbbbbbb"}
	s.registry.SetIDGenerator(func() string {
		id := ids[0]
		if len(ids) > 1 {
			ids = ids[1:]
		}
		return id
	})

	a := mustJoin(t, s, `{"type":"REGISTER","username":"alice","password":"pw","class":"mage"}`)
	require.Equal(t, domain.PlayerID("aaaaaaaa"), a.PlayerID)
	require.NoError(t, s.World().Update(func(tx *world.Tx) error {
		p, _ := tx.Player(a.PlayerID)
		s.Progression().GrantXP(p, 250)
		return nil
	}))
	s.Disconnect(a.PlayerID)

	b := mustJoin(t, s, `{"type":"REGISTER","username":"bob","password":"pw"}`)
	assert.Equal(t, domain.PlayerID("bbbbbbbb"), b.PlayerID)
	s.Disconnect(b.PlayerID)

	save, ok, err := store.LoadPlayer(context.Background(), a.PlayerID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "mage", save.Class)
	assert.Greater(t, save.Level, 1, "first account keeps its progress")
}

func TestHandleMessage_AttackMissWithoutTargets(t *testing.T) {
	s, _ := newTestService(t)
	a := mustJoin(t, s, `{"type":"INIT"}`)

	s.HandleMessage(a.PlayerID, []byte(`{"type":"ATTACK"}`))
	var combat api.CombatMessage
	expect(t, a.Outbound, api.MsgCombat, &combat)
	assert.Equal(t, "miss", combat.Result.Result)
	assert.Nil(t, combat.Result.EnemyHP)
}

func TestStart_PopulatesWorld(t *testing.T) {
	s, _ := newTestService(t)
	s.cfg.World.InitialHostiles = 20

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	_, hostiles, _ := s.Counts()
	assert.Equal(t, 20, hostiles)
	for _, h := range s.World().SnapshotHostiles() {
		assert.False(t, terrain.InsideCity(h.Pos.X, h.Pos.Y), "hostile %s spawned in the city", h.ID)
	}
}

func TestOpenStore(t *testing.T) {
	st, err := OpenStore(context.Background(), StorageConfig{Type: StorageMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, st)

	_, err = OpenStore(context.Background(), StorageConfig{Type: "etcd"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
