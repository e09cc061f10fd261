package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"isekai-server/internal/domain"
	"isekai-server/internal/engine/handlers"
	"isekai-server/internal/engine/handlers/actions"
	"isekai-server/internal/engine/view"
	"isekai-server/internal/infrastructure/storage"
	"isekai-server/internal/infrastructure/storage/memory"
	redisstore "isekai-server/internal/infrastructure/storage/redis"
	"isekai-server/internal/network"
	"isekai-server/internal/systems"
	"isekai-server/internal/world"
	"isekai-server/pkg/api"
	"isekai-server/pkg/logger"
	"isekai-server/pkg/utils"
)

// ErrNotHandshake - первое сообщение сессии не REGISTER/LOGIN/INIT
var ErrNotHandshake = errors.New("expected REGISTER, LOGIN or INIT")

// registerIDAttempts - сколько id пробует REGISTER, если попадает на занятый в хранилище
const registerIDAttempts = 8

// LoginError - отказ во входе. Reason уходит клиенту в LOGIN_FAIL как есть.
type LoginError struct {
	Reason string
	Err    error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *LoginError) Unwrap() error { return e.Err }

func loginFail(reason string, err error) *LoginError {
	return &LoginError{Reason: reason, Err: err}
}

// Binding - итог успешного входа: чей это сокет и откуда брать исходящие
type Binding struct {
	PlayerID domain.PlayerID
	Outbound <-chan []byte
}

// binding - состояние привязанного игрока на стороне сервиса
type binding struct {
	persistent bool
	leaving    bool
}

type GameService struct {
	cfg Config
	log *logrus.Entry

	registry    *world.Registry
	spawner     *world.Spawner
	progression *systems.Progression
	combat      *systems.Resolver
	quests      *systems.QuestTracker
	npcs        []domain.NPC

	Hub *network.Broadcaster

	store  storage.Store
	writer *storage.Writer

	handlers map[domain.ActionType]handlers.HandlerFunc

	// mu защищает bound. Порядок блокировок: реестр -> mu.
	mu    sync.Mutex
	bound map[domain.PlayerID]*binding
}

func NewService(cfg Config, store storage.Store) (*GameService, error) {
	zones, err := cfg.World.SpawnZones()
	if err != nil {
		return nil, err
	}

	rng := utils.NewLockedRand(cfg.Seed)
	registry := world.NewRegistry()

	s := &GameService{
		cfg:      cfg,
		log:      logger.Component("game_service"),
		registry: registry,
		spawner:  world.NewSpawner(registry, zones, rng, cfg.World.TargetHostiles),
		quests:   systems.NewQuestTracker(domain.Quests, domain.FirstQuestID),
		npcs:     domain.DefaultNPCs(),
		Hub:      network.NewBroadcaster(cfg.Network.SendBuffer),
		store:    store,
		writer:   storage.NewWriter(store, cfg.Storage.SaveTimeout),
		handlers: make(map[domain.ActionType]handlers.HandlerFunc),
		bound:    make(map[domain.PlayerID]*binding),
	}
	s.progression = systems.NewProgression(s)
	s.combat = systems.NewResolver(registry, s.spawner, s.progression, rng)

	s.registerHandlers()
	return s, nil
}

// OpenStore создает хранилище по конфигу
func OpenStore(ctx context.Context, cfg StorageConfig) (storage.Store, error) {
	hasher := storage.DefaultHasher()
	switch cfg.Type {
	case StorageRedis:
		return redisstore.New(ctx, cfg.Redis, hasher)
	case StorageMemory, "":
		return memory.New(hasher), nil
	default:
		return nil, fmt.Errorf("%w: storage type %q", ErrInvalidConfig, cfg.Type)
	}
}

func (s *GameService) registerHandlers() {
	s.handlers[domain.ActionMove] = handlers.WithPayload(actions.HandleMove)
	s.handlers[domain.ActionAttack] = handlers.WithEmptyPayload(actions.HandleAttack)
	s.handlers[domain.ActionSkill] = handlers.WithPayload(actions.HandleSkill)
	s.handlers[domain.ActionChat] = handlers.WithPayload(actions.HandleChat)
	s.handlers[domain.ActionTalkNPC] = handlers.WithEmptyPayload(actions.HandleTalk)
}

// Start заселяет мир и запускает фоновое поддержание популяции до отмены ctx
func (s *GameService) Start(ctx context.Context) {
	spawned := s.spawner.Populate(s.cfg.World.InitialHostiles)
	s.log.WithFields(logrus.Fields{
		"requested": s.cfg.World.InitialHostiles,
		"spawned":   spawned,
		"target":    s.cfg.World.TargetHostiles,
	}).Info("World populated")

	go s.spawner.Run(ctx, s.cfg.World.MaintainInterval)
}

// Shutdown дописывает очередь сохранений и закрывает хранилище.
// Сессии к этому моменту уже должны быть отключены.
func (s *GameService) Shutdown(ctx context.Context) error {
	werr := s.writer.Close(ctx)
	serr := s.store.Close()
	return errors.Join(werr, serr)
}

// --- handlers.Game ---

func (s *GameService) World() *world.Registry { return s.registry }
func (s *GameService) Combat() *systems.Resolver { return s.combat }
func (s *GameService) Quests() *systems.QuestTracker { return s.quests }
func (s *GameService) Progression() *systems.Progression { return s.progression }
func (s *GameService) NPCs() []domain.NPC { return s.npcs }
func (s *GameService) Spawner() *world.Spawner { return s.spawner }
func (s *GameService) Config() Config { return s.cfg }

func (s *GameService) SendTo(id domain.PlayerID, msg any) { s.Hub.SendTo(id, msg) }

func (s *GameService) Broadcast(msg any, exclude domain.PlayerID) {
	s.Hub.Broadcast(msg, exclude)
}

var _ handlers.Game = (*GameService)(nil)

// Enqueue реализует systems.SaveQueue: анонимные игроки не сохраняются.
// Зовется под блокировкой реестра.
func (s *GameService) Enqueue(id domain.PlayerID, save domain.PlayerSave) {
	s.mu.Lock()
	b, ok := s.bound[id]
	persistent := ok && b.persistent
	s.mu.Unlock()

	if persistent {
		s.writer.Enqueue(id, save)
	}
}

// --- Вход ---

// Join обрабатывает первое сообщение сессии. Пустой type - анонимный INIT.
// kick вызывается, если сессия не успевает читать исходящие.
func (s *GameService) Join(ctx context.Context, msg api.ClientMessage, kick func()) (Binding, error) {
	action := domain.ActionInit
	if msg.Type != "" {
		action = domain.ParseAction(msg.Type)
	}
	if !action.IsHandshake() {
		return Binding{}, ErrNotHandshake
	}

	var (
		player     domain.PlayerEntity
		persistent bool
		err        error
	)
	switch action {
	case domain.ActionRegister:
		player, err = s.register(ctx, msg.Raw)
		persistent = true
	case domain.ActionLogin:
		player, err = s.login(ctx, msg.Raw)
		persistent = true
	default:
		player, err = s.anonymous(msg.Raw)
	}
	if err != nil {
		return Binding{}, err
	}

	out, err := s.enter(player, persistent, kick)
	if err != nil {
		return Binding{}, err
	}

	s.log.WithFields(logrus.Fields{
		"player_id":  player.ID,
		"class":      player.Class.String(),
		"level":      player.Level,
		"via":        action.String(),
		"persistent": persistent,
	}).Info("Player joined")

	return Binding{PlayerID: player.ID, Outbound: out}, nil
}

func decodeAuth(raw json.RawMessage) (api.AuthPayload, error) {
	var p api.AuthPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return api.AuthPayload{}, loginFail(api.ReasonMissingCredentials, err)
	}
	if err := p.Validate(); err != nil {
		return api.AuthPayload{}, loginFail(api.ReasonMissingCredentials, err)
	}
	return p, nil
}

func (s *GameService) register(ctx context.Context, raw json.RawMessage) (domain.PlayerEntity, error) {
	p, err := decodeAuth(raw)
	if err != nil {
		return domain.PlayerEntity{}, err
	}

	exists, err := s.store.AccountExists(ctx, p.Username)
	if err != nil {
		return domain.PlayerEntity{}, loginFail(api.ReasonServerError, err)
	}
	if exists {
		return domain.PlayerEntity{}, loginFail(api.ReasonUserExists, storage.ErrAccountExists)
	}

	id, err := s.createAccount(ctx, p)
	if err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			return domain.PlayerEntity{}, loginFail(api.ReasonUserExists, err)
		}
		return domain.PlayerEntity{}, loginFail(api.ReasonServerError, err)
	}

	player, err := s.spawn(id, domain.ParseClassOrDefault(p.Class), nil, true)
	if err != nil {
		return domain.PlayerEntity{}, err
	}
	// Новый аккаунт сразу получает сохранение со статами класса
	s.writer.Enqueue(id, player.Save())
	return player, nil
}

// createAccount подбирает id, не занятый ни онлайн-игроком, ни аккаунтом в хранилище
func (s *GameService) createAccount(ctx context.Context, p api.AuthPayload) (domain.PlayerID, error) {
	var err error
	for i := 0; i < registerIDAttempts; i++ {
		id := s.registry.NewPlayerID()
		err = s.store.CreateAccount(ctx, p.Username, p.Password, id)
		if !errors.Is(err, storage.ErrPlayerIDTaken) {
			return id, err
		}
		s.log.WithField("player_id", id).Debug("Player id already reserved, retrying")
	}
	return "", err
}

func (s *GameService) login(ctx context.Context, raw json.RawMessage) (domain.PlayerEntity, error) {
	p, err := decodeAuth(raw)
	if err != nil {
		return domain.PlayerEntity{}, err
	}

	id, err := s.store.VerifyLogin(ctx, p.Username, p.Password)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCredentials) || errors.Is(err, storage.ErrAccountNotFound) {
			return domain.PlayerEntity{}, loginFail(api.ReasonInvalidCredentials, err)
		}
		return domain.PlayerEntity{}, loginFail(api.ReasonServerError, err)
	}

	if s.isBound(id) {
		return domain.PlayerEntity{}, loginFail(api.ReasonAlreadyLoggedIn, world.ErrPlayerExists)
	}

	// Хранилище недоступно - входим со статами класса
	var savePtr *domain.PlayerSave
	save, found, err := s.store.LoadPlayer(ctx, id)
	switch {
	case err != nil:
		s.log.WithError(err).WithField("player_id", id).Warn("Failed to load player, using defaults")
	case found:
		savePtr = &save
	}

	class := domain.ClassWarrior
	if savePtr != nil {
		class = domain.ParseClassOrDefault(savePtr.Class)
	}
	return s.spawn(id, class, savePtr, true)
}

func (s *GameService) anonymous(raw json.RawMessage) (domain.PlayerEntity, error) {
	var p api.InitPayload
	if len(raw) > 0 {
		// Битый INIT все равно впускает воина
		_ = json.Unmarshal(raw, &p)
	}
	return s.spawn(s.registry.NewPlayerID(), domain.ParseClassOrDefault(p.Class), nil, false)
}

// spawn занимает ID и вставляет игрока в реестр. Занятый ID - "Already logged in".
func (s *GameService) spawn(id domain.PlayerID, class domain.Class, save *domain.PlayerSave, persistent bool) (domain.PlayerEntity, error) {
	if !s.claim(id, persistent) {
		return domain.PlayerEntity{}, loginFail(api.ReasonAlreadyLoggedIn, world.ErrPlayerExists)
	}

	player, err := s.registry.CreatePlayer(class, id, save)
	if err != nil {
		s.release(id)
		if errors.Is(err, world.ErrPlayerExists) {
			return domain.PlayerEntity{}, loginFail(api.ReasonAlreadyLoggedIn, err)
		}
		return domain.PlayerEntity{}, loginFail(api.ReasonServerError, err)
	}
	return player, nil
}

// enter выдает стартовый квест, отправляет INIT и объявляет игрока остальным.
// Подписка оформляется внутри View: все изменения после снимка придут
// уже после INIT.
func (s *GameService) enter(player domain.PlayerEntity, persistent bool, kick func()) (<-chan []byte, error) {
	var questView *api.QuestView
	if q, ok := s.quests.AssignFirst(player.ID); ok {
		qv := view.Quest(q)
		questView = &qv
	}

	var (
		out    <-chan []byte
		regErr error
	)
	s.registry.View(func(tx *world.Tx) {
		data, err := json.Marshal(api.InitMessage{
			Type:    api.MsgInit,
			ID:      player.ID.String(),
			State:   view.Players(tx.PlayersSnapshot()),
			Enemies: view.Hostiles(tx.HostilesSnapshot()),
			NPCs:    view.NPCs(s.npcs),
			Quest:   questView,
		})
		if err != nil {
			regErr = err
			return
		}
		out, regErr = s.Hub.Register(player.ID, kick, data)
	})
	if regErr != nil {
		s.registry.RemovePlayer(player.ID)
		s.quests.Forget(player.ID)
		s.release(player.ID)
		return nil, loginFail(api.ReasonServerError, regErr)
	}

	s.Hub.Broadcast(api.JoinMessage{
		Type: api.MsgJoin,
		ID:   player.ID.String(),
		Data: view.Player(player),
	}, player.ID)

	return out, nil
}

func (s *GameService) claim(id domain.PlayerID, persistent bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.bound[id]; taken {
		return false
	}
	s.bound[id] = &binding{persistent: persistent}
	return true
}

func (s *GameService) release(id domain.PlayerID) {
	s.mu.Lock()
	delete(s.bound, id)
	s.mu.Unlock()
}

func (s *GameService) isBound(id domain.PlayerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.bound[id]
	return ok
}

// --- Игровые намерения ---

// HandleMessage разбирает и применяет одно намерение активной сессии.
// Ошибки протокола только логируются: сообщение отброшено, сессия живет.
func (s *GameService) HandleMessage(id domain.PlayerID, raw []byte) {
	msg, err := api.DecodeClientMessage(raw)
	if err != nil {
		s.log.WithError(err).WithField("player_id", id).Warn("Malformed message dropped")
		return
	}

	action := domain.ParseAction(msg.Type)
	handler, ok := s.handlers[action]
	if !ok {
		s.log.WithFields(logrus.Fields{
			"player_id": id,
			"type":      msg.Type,
		}).Warn("Unsupported message dropped")
		return
	}

	ctx := handlers.Context{Game: s, Actor: id}
	result, err := handler(ctx, msg.Raw)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"player_id": id,
			"action":    action.String(),
			"error":     err,
		}).Warn("Intent rejected")
		return
	}

	if result.Msg != "" {
		s.log.WithFields(logrus.Fields{
			"player_id": id,
			"action":    action.String(),
			"kind":      result.MsgType,
		}).Debug(result.Msg)
	}
}

// --- Выход ---

// Disconnect убирает игрока из мира и сохраняет его. Повторный вызов - no-op.
// Удаление, отписка и LEAVE выполняются, даже если сохранение упало.
// ID остается занятым до конца записи, чтобы перезаход не прочитал старое сохранение.
func (s *GameService) Disconnect(id domain.PlayerID) {
	s.mu.Lock()
	b, ok := s.bound[id]
	if !ok || b.leaving {
		s.mu.Unlock()
		return
	}
	b.leaving = true
	persistent := b.persistent
	s.mu.Unlock()
	defer s.release(id)

	last, found := s.registry.RemovePlayer(id)
	s.Hub.Unregister(id)
	s.quests.Forget(id)
	if found {
		s.Hub.Broadcast(api.LeaveMessage{Type: api.MsgLeave, ID: id.String()}, "")
	}

	fields := logrus.Fields{"player_id": id, "persistent": persistent}
	if found && persistent {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Storage.SaveTimeout)
		defer cancel()
		if err := s.writer.Save(ctx, id, last.Save()); err != nil {
			s.log.WithFields(fields).WithError(err).Error("Final save failed")
		}
	}

	s.log.WithFields(fields).Info("Player left")
}

// Counts - текущее число игроков, врагов и подключений
func (s *GameService) Counts() (players, hostiles, connections int) {
	players, hostiles = s.registry.Counts()
	return players, hostiles, s.Hub.SubscriberCount()
}
