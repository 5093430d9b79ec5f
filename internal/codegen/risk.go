package codegen

import (
	"prop-strategy-builder/internal/types"
)

// riskPlan decides which risk and compliance blocks a document carries.
// Every decision reads the in-memory settings, never another document.
type riskPlan struct {
	risk   types.RiskManagement
	preset types.PropFirmPreset
}

func (p riskPlan) trailing() bool      { return p.risk.UseTrailingStop }
func (p riskPlan) drawdown() bool      { return p.preset.EnableDrawdownMonitoring }
func (p riskPlan) visibleSLTP() bool   { return p.preset.EnforceVisibleSLTP }
func (p riskPlan) capsPositions() bool { return p.preset.MaxOpenTrades > 0 }
func (p riskPlan) newsFilter() bool    { return p.preset.UseNewsFilter }

// inputGroups returns the risk group followed by the prop-firm group.
func (p riskPlan) inputGroups() []InputGroup {
	r := InputGroup{Title: "Risk Management"}
	r.Inputs = append(r.Inputs,
		doubleInput("RiskPercent", p.risk.RiskPercentPerTrade, "Risk per trade, percent of equity"),
		intInput("StopLossPips", p.risk.StopLossPips, "Stop loss distance in pips"),
		intInput("TakeProfitPips", p.risk.TakeProfitPips, "Take profit distance in pips"),
		Input{Name: "UseTrailingStop", Type: inputBool, Value: formatBool(p.risk.UseTrailingStop), Comment: "Trail the stop loss behind price"},
	)
	if p.trailing() {
		r.Inputs = append(r.Inputs, intInput("TrailingStopPips", p.risk.TrailingStopPips, "Trailing distance in pips"))
	}

	f := InputGroup{Title: "Prop Firm Settings"}
	f.Inputs = append(f.Inputs,
		doubleInput("MaxDailyDrawdown", p.preset.DailyDrawdownPercent, "Daily drawdown limit, percent of day start balance"),
		doubleInput("MaxTotalDrawdown", p.preset.MaxDrawdownPercent, "Total drawdown limit, percent of initial balance"),
		intInput("MaxOpenTrades", p.preset.MaxOpenTrades, "Maximum concurrent positions for this EA"),
		longInput("MagicNumber", p.preset.MagicNumber, "Tag attached to every order"),
	)
	return []InputGroup{r, f}
}

func (p riskPlan) writeGlobals(w *codeWriter) {
	w.line("CTrade   trade;")
	w.line("datetime g_lastBarTime = 0;")
	if p.drawdown() {
		w.line("double   g_initialBalance = 0.0;")
		w.line("double   g_dayStartBalance = 0.0;")
		w.line("int      g_currentDay = -1;")
		w.line("bool     g_dailyHalted = false;")
		w.line("bool     g_totalHalted = false;")
	}
}

func (p riskPlan) writeInit(w *codeWriter) {
	w.line("trade.SetExpertMagicNumber(MagicNumber);")
	if p.drawdown() {
		w.line("InitDrawdownState();")
	}
}

// writeTickPrologue emits the work done on every tick before the new-bar gate.
func (p riskPlan) writeTickPrologue(w *codeWriter) {
	if p.drawdown() {
		w.line("UpdateDrawdownState();")
	}
	if p.trailing() {
		w.line("ApplyTrailingStop();")
	}
}

func (p riskPlan) writeFunctions(w *codeWriter) {
	p.writePipSize(w)
	w.line()
	p.writeOwnership(w)
	w.line()
	p.writeLotSize(w)
	w.line()
	if p.trailing() {
		p.writeTrailing(w)
		w.line()
	}
	if p.drawdown() {
		p.writeDrawdown(w)
		w.line()
	}
	if p.newsFilter() {
		p.writeNewsHook(w)
		w.line()
	}
	p.writeGuard(w)
	w.line()
	p.writeOrders(w)
}

func (p riskPlan) writePipSize(w *codeWriter) {
	w.line("// PipSize treats fractional-pip quotes (3 and 5 digits) as ten points per pip.")
	w.open("double PipSize()")
	w.line("if(_Digits == 3 || _Digits == 5)")
	w.line("   return _Point * 10.0;")
	w.line("return _Point;")
	w.close()
}

func (p riskPlan) writeOwnership(w *codeWriter) {
	w.open("bool IsOwnPosition(ulong ticket)")
	w.line("if(ticket == 0 || !PositionSelectByTicket(ticket))")
	w.line("   return false;")
	w.line("return PositionGetInteger(POSITION_MAGIC) == MagicNumber && PositionGetString(POSITION_SYMBOL) == _Symbol;")
	w.close()
	w.line()
	w.open("int CountOpenPositions()")
	w.line("int count = 0;")
	w.line("for(int i = PositionsTotal() - 1; i >= 0; i--)")
	w.line("   if(IsOwnPosition(PositionGetTicket(i)))")
	w.line("      count++;")
	w.line("return count;")
	w.close()
}

func (p riskPlan) writeLotSize(w *codeWriter) {
	w.line("// CalculateLotSize risks RiskPercent of equity over the stop distance,")
	w.line("// falling back to the minimum volume when the inputs cannot size a trade.")
	w.open("double CalculateLotSize(int stopLossPips)")
	w.line("double minLot    = SymbolInfoDouble(_Symbol, SYMBOL_VOLUME_MIN);")
	w.line("double maxLot    = SymbolInfoDouble(_Symbol, SYMBOL_VOLUME_MAX);")
	w.line("double lotStep   = SymbolInfoDouble(_Symbol, SYMBOL_VOLUME_STEP);")
	w.line("double tickValue = SymbolInfoDouble(_Symbol, SYMBOL_TRADE_TICK_VALUE);")
	w.line("double tickSize  = SymbolInfoDouble(_Symbol, SYMBOL_TRADE_TICK_SIZE);")
	w.line("if(stopLossPips <= 0 || RiskPercent <= 0.0 || tickValue <= 0.0 || tickSize <= 0.0)")
	w.line("   return minLot;")
	w.line("double riskMoney  = AccountInfoDouble(ACCOUNT_EQUITY) * RiskPercent / 100.0;")
	w.line("double lossPerLot = stopLossPips * PipSize() / tickSize * tickValue;")
	w.line("if(lossPerLot <= 0.0)")
	w.line("   return minLot;")
	w.line("double lots = riskMoney / lossPerLot;")
	w.line("if(lotStep > 0.0)")
	w.line("   lots = MathFloor(lots / lotStep) * lotStep;")
	w.line("return MathMax(minLot, MathMin(maxLot, lots));")
	w.close()
}

func (p riskPlan) writeTrailing(w *codeWriter) {
	w.open("void ApplyTrailingStop()")
	w.line("if(!UseTrailingStop || TrailingStopPips <= 0)")
	w.line("   return;")
	w.line("double distance = TrailingStopPips * PipSize();")
	w.line("double bid = SymbolInfoDouble(_Symbol, SYMBOL_BID);")
	w.open("for(int i = PositionsTotal() - 1; i >= 0; i--)")
	w.line("ulong ticket = PositionGetTicket(i);")
	w.line("if(!IsOwnPosition(ticket) || PositionGetInteger(POSITION_TYPE) != POSITION_TYPE_BUY)")
	w.line("   continue;")
	w.line("double openPrice = PositionGetDouble(POSITION_PRICE_OPEN);")
	w.line("double sl = PositionGetDouble(POSITION_SL);")
	w.line("double tp = PositionGetDouble(POSITION_TP);")
	w.line("double newSl = NormalizeDouble(bid - distance, _Digits);")
	w.line("if(bid - openPrice > distance && (sl == 0.0 || newSl > sl))")
	w.line("   trade.PositionModify(ticket, newSl, tp);")
	w.close()
	w.close()
}

// writeDrawdown emits the kill-switch state. The initial balance, the day
// start balance and the daily halt survive restarts through terminal global
// variables keyed by the magic number; the daily values are only reused while
// the stored day is still the current one.
// Halting only blocks new entries; open positions are left to their SL/TP.
func (p riskPlan) writeDrawdown(w *codeWriter) {
	w.open("string StateKey(string name)")
	w.line("return \"PSB_\" + IntegerToString(MagicNumber) + \"_\" + name;")
	w.close()
	w.line()
	w.open("int CurrentDay()")
	w.line("MqlDateTime now;")
	w.line("TimeToStruct(TimeCurrent(), now);")
	w.line("return now.year * 1000 + now.day_of_year;")
	w.close()
	w.line()
	w.open("void StartNewDay(int day)")
	w.line("g_currentDay = day;")
	w.line("g_dayStartBalance = AccountInfoDouble(ACCOUNT_BALANCE);")
	w.line("g_dailyHalted = false;")
	w.line("GlobalVariableSet(StateKey(\"Day\"), day);")
	w.line("GlobalVariableSet(StateKey(\"DayStartBalance\"), g_dayStartBalance);")
	w.line("GlobalVariableSet(StateKey(\"DailyHalted\"), 0.0);")
	w.close()
	w.line()
	w.open("void InitDrawdownState()")
	w.line("string key = StateKey(\"InitialBalance\");")
	w.line("if(GlobalVariableCheck(key))")
	w.line("   g_initialBalance = GlobalVariableGet(key);")
	w.open("else")
	w.line("g_initialBalance = AccountInfoDouble(ACCOUNT_BALANCE);")
	w.line("GlobalVariableSet(key, g_initialBalance);")
	w.close()
	w.line("int day = CurrentDay();")
	w.line("bool sameDay = GlobalVariableCheck(StateKey(\"Day\")) && (int)GlobalVariableGet(StateKey(\"Day\")) == day;")
	w.open("if(sameDay && GlobalVariableCheck(StateKey(\"DayStartBalance\")))")
	w.line("g_currentDay = day;")
	w.line("g_dayStartBalance = GlobalVariableGet(StateKey(\"DayStartBalance\"));")
	w.line("g_dailyHalted = GlobalVariableCheck(StateKey(\"DailyHalted\")) && GlobalVariableGet(StateKey(\"DailyHalted\")) != 0.0;")
	w.close()
	w.line("else")
	w.line("   StartNewDay(day);")
	w.close()
	w.line()
	w.open("void UpdateDrawdownState()")
	w.line("int day = CurrentDay();")
	w.line("if(day != g_currentDay)")
	w.line("   StartNewDay(day);")
	w.line("double equity = AccountInfoDouble(ACCOUNT_EQUITY);")
	w.open("if(!g_dailyHalted && g_dayStartBalance > 0.0)")
	w.line("double dailyDD = (g_dayStartBalance - equity) / g_dayStartBalance * 100.0;")
	w.open("if(dailyDD >= MaxDailyDrawdown)")
	w.line("g_dailyHalted = true;")
	w.line("GlobalVariableSet(StateKey(\"DailyHalted\"), 1.0);")
	w.line("PrintFormat(\"Daily drawdown %.2f%% reached limit %.2f%%, new entries halted until next day\", dailyDD, MaxDailyDrawdown);")
	w.close()
	w.close()
	w.open("if(!g_totalHalted && g_initialBalance > 0.0)")
	w.line("double totalDD = (g_initialBalance - equity) / g_initialBalance * 100.0;")
	w.open("if(totalDD >= MaxTotalDrawdown)")
	w.line("g_totalHalted = true;")
	w.line("PrintFormat(\"Total drawdown %.2f%% reached limit %.2f%%, new entries halted\", totalDD, MaxTotalDrawdown);")
	w.close()
	w.close()
	w.close()
}

func (p riskPlan) writeNewsHook(w *codeWriter) {
	w.line("// IsNewsBlackout is the news filter hook. Return true while a high impact")
	w.line("// event is near to block new entries. The default implementation never blocks.")
	w.open("bool IsNewsBlackout()")
	w.line("return false;")
	w.close()
}

// writeGuard emits CanOpenNewTrade with one clause per enabled compliance rule.
func (p riskPlan) writeGuard(w *codeWriter) {
	w.open("bool CanOpenNewTrade()")
	if p.drawdown() {
		w.line("if(g_dailyHalted || g_totalHalted)")
		w.line("   return false;")
	}
	if p.visibleSLTP() {
		w.line("if(StopLossPips <= 0 || TakeProfitPips <= 0)")
		w.line("   return false;")
	}
	if p.capsPositions() {
		w.line("if(MaxOpenTrades > 0 && CountOpenPositions() >= MaxOpenTrades)")
		w.line("   return false;")
	}
	if p.newsFilter() {
		w.line("if(IsNewsBlackout())")
		w.line("   return false;")
	}
	w.line("return true;")
	w.close()
}

func (p riskPlan) writeOrders(w *codeWriter) {
	w.open("void OpenBuy()")
	w.line("double ask = SymbolInfoDouble(_Symbol, SYMBOL_ASK);")
	w.line("double pip = PipSize();")
	w.line("double sl  = 0.0;")
	w.line("double tp  = 0.0;")
	w.line("if(StopLossPips > 0)")
	w.line("   sl = NormalizeDouble(ask - StopLossPips * pip, _Digits);")
	w.line("if(TakeProfitPips > 0)")
	w.line("   tp = NormalizeDouble(ask + TakeProfitPips * pip, _Digits);")
	w.line("double lots = CalculateLotSize(StopLossPips);")
	w.line("if(!trade.Buy(lots, _Symbol, ask, sl, tp, EA_NAME))")
	w.line("   PrintFormat(\"Buy failed: %u %s\", trade.ResultRetcode(), trade.ResultRetcodeDescription());")
	w.close()
	w.line()
	w.open("void CloseOwnPositions()")
	w.open("for(int i = PositionsTotal() - 1; i >= 0; i--)")
	w.line("ulong ticket = PositionGetTicket(i);")
	w.line("if(!IsOwnPosition(ticket))")
	w.line("   continue;")
	w.line("if(!trade.PositionClose(ticket))")
	w.line("   PrintFormat(\"Close %I64u failed: %u %s\", ticket, trade.ResultRetcode(), trade.ResultRetcodeDescription());")
	w.close()
	w.close()
}
