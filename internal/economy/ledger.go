package economy

import "fmt"

type TxType string

const (
	TxSignup        TxType = "signup"
	TxActionCost    TxType = "action_cost"
	TxLikeReward    TxType = "like_reward"
	TxTransferIn    TxType = "transfer_in"
	TxTransferOut   TxType = "transfer_out"
	TxPurchase      TxType = "purchase"
	TxConvertIn     TxType = "convert_in"
	TxConvertOut    TxType = "convert_out"
	TxBankDeposit   TxType = "bank_deposit"
	TxBankWithdraw  TxType = "bank_withdraw"
	TxCDOpen        TxType = "cd_open"
	TxCDRedeem      TxType = "cd_redeem"
	TxStockBuy      TxType = "stock_buy"
	TxStockSell     TxType = "stock_sell"
	TxCreditCharge  TxType = "credit_charge"
	TxCreditPayment TxType = "credit_payment"
	TxChestReward   TxType = "chest_reward"
	TxLotteryTicket TxType = "lottery_ticket"
	TxLotteryPrize  TxType = "lottery_prize"
)

type LedgerEntry struct {
	ID           int64  `json:"id"`
	Type         TxType `json:"type"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
}

type LedgerBreak struct {
	EntryID  int64 `json:"entry_id"`
	Expected int64 `json:"expected"`
	Actual   int64 `json:"actual"`
}

func (b LedgerBreak) Error() string {
	return fmt.Sprintf("ledger entry %d: balance_after %d, expected %d", b.EntryID, b.Actual, b.Expected)
}

// VerifyLedgerChain checks that each entry's balance_after equals the previous
// balance_after plus its amount. The first entry anchors the chain. It returns the
// first break, or nil.
func VerifyLedgerChain(entries []LedgerEntry) *LedgerBreak {
	for i := 1; i < len(entries); i++ {
		want := entries[i-1].BalanceAfter + entries[i].Amount
		if entries[i].BalanceAfter != want {
			return &LedgerBreak{EntryID: entries[i].ID, Expected: want, Actual: entries[i].BalanceAfter}
		}
	}
	return nil
}
