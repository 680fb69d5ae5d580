package progression

// XPPerLevel - стоимость одного уровня в очках опыта.
const XPPerLevel = 100

// DeriveLevel вычисляет уровень и прогресс внутри уровня из суммарного XP.
// Это единственная формула уровня в кодовой базе: уровень нигде не
// хранится как независимая переменная, он всегда выводится отсюда.
//
//	level = totalXP/XPPerLevel + 1
//	levelXP = totalXP mod XPPerLevel
func DeriveLevel(totalXP int) (level, levelXP int) {
	if totalXP < 0 {
		totalXP = 0
	}
	return totalXP/XPPerLevel + 1, totalXP % XPPerLevel
}
