package systems

import (
	"isekai-server/internal/domain"
)

// SaveQueue принимает копии состояния игрока на сохранение.
// Enqueue не должен блокироваться: его зовут под блокировкой реестра.
type SaveQueue interface {
	Enqueue(id domain.PlayerID, save domain.PlayerSave)
}

// Progression - учет опыта и уровней
type Progression struct {
	saves SaveQueue
}

func NewProgression(saves SaveQueue) *Progression {
	return &Progression{saves: saves}
}

// GrantXP начисляет опыт и проводит все положенные повышения уровня.
// Возвращает число полученных уровней. Копия состояния уходит в очередь сохранения.
func (pr *Progression) GrantXP(p *domain.PlayerEntity, amount int) int {
	levels := ApplyXP(p, amount)
	if pr.saves != nil {
		pr.saves.Enqueue(p.ID, p.Save())
	}
	return levels
}

// ApplyXP - чистая часть: цикл, а не if, потому что крупная награда
// может дать несколько уровней сразу.
func ApplyXP(p *domain.PlayerEntity, amount int) int {
	if amount <= 0 {
		return 0
	}
	p.XP += amount

	levels := 0
	for p.XP >= domain.XPPerLevel {
		p.XP -= domain.XPPerLevel
		p.Level++
		p.MaxHP += domain.HPPerLevel
		p.HP = p.MaxHP
		levels++
	}
	return levels
}
